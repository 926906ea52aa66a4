package journal

const schema = `
CREATE TABLE IF NOT EXISTS passes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    root TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    dry_run BOOLEAN NOT NULL,
    skipped INTEGER NOT NULL,
    protected INTEGER NOT NULL,
    deleted INTEGER NOT NULL,
    failures INTEGER NOT NULL,
    unclassifiable INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deletions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pass_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    kind TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT,
    FOREIGN KEY (pass_id) REFERENCES passes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_passes_root ON passes(root);
CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started_at);
CREATE INDEX IF NOT EXISTS idx_deletions_pass ON deletions(pass_id);
`
