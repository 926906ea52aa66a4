package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Client used by tests and by engine development.
// Paths are slash-separated, with no leading or trailing slash. Adding a file
// implicitly creates every folder above it. All Delete calls are recorded so
// tests can assert exactly which deletions a pass issued.
type Memory struct {
	mu      sync.Mutex
	files   map[string]time.Time
	folders map[string]struct{}

	deleteErr map[string]error
	deleted   []string
	reachable bool
}

// NewMemory returns an empty, reachable in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		files:     make(map[string]time.Time),
		folders:   make(map[string]struct{}),
		deleteErr: make(map[string]error),
		reachable: true,
	}
}

// AddFile stores a file at path with the given modification instant,
// creating parent folders as needed.
func (m *Memory) AddFile(path string, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = modified
	m.addParents(path)
}

// AddFolder stores an (initially empty) folder at path.
func (m *Memory) AddFolder(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[path] = struct{}{}
	m.addParents(path)
}

func (m *Memory) addParents(path string) {
	for {
		i := strings.LastIndexByte(path, '/')
		if i < 0 {
			return
		}
		path = path[:i]
		m.folders[path] = struct{}{}
	}
}

// FailDeleteWith makes subsequent Delete calls for path return err.
func (m *Memory) FailDeleteWith(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr[path] = err
}

// SetReachable toggles whether Ping succeeds.
func (m *Memory) SetReachable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reachable = ok
}

// Deleted returns every path passed to Delete, in call order, including
// calls that failed.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// ListChildren implements Client. Children are returned in lexical name
// order so listings are deterministic.
func (m *Memory) ListChildren(_ context.Context, path string) ([]Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[path]; !ok {
		return nil, fmt.Errorf("list %s: %w", path, ErrInvalidRoot)
	}

	seen := make(map[string]bool)
	var children []Child
	collect := func(p string, folder bool) {
		rest, ok := strings.CutPrefix(p, path+"/")
		if !ok || rest == "" {
			return
		}
		name, _, nested := strings.Cut(rest, "/")
		if nested {
			return // not an immediate child
		}
		if !seen[name] {
			seen[name] = true
			children = append(children, Child{Name: name, Folder: folder})
		}
	}
	for p := range m.files {
		collect(p, false)
	}
	for p := range m.folders {
		collect(p, true)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

// FileModifiedAt implements Client.
func (m *Memory) FileModifiedAt(_ context.Context, path string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.files[path]
	if !ok {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, ErrNotFound)
	}
	return t, nil
}

// MostRecentUnderSubtree implements Client.
func (m *Memory) MostRecentUnderSubtree(_ context.Context, path string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newest time.Time
	var found bool
	for p, t := range m.files {
		if !strings.HasPrefix(p, path+"/") {
			continue
		}
		if !found || t.After(newest) {
			newest = t
			found = true
		}
	}
	return newest, found, nil
}

// Delete implements Client.
func (m *Memory) Delete(_ context.Context, path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, path)
	if err, ok := m.deleteErr[path]; ok {
		return err
	}

	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		return nil
	}
	if _, ok := m.folders[path]; ok {
		if !recursive {
			return fmt.Errorf("delete %s: folder requires recursive delete", path)
		}
		delete(m.folders, path)
		for p := range m.files {
			if strings.HasPrefix(p, path+"/") {
				delete(m.files, p)
			}
		}
		for p := range m.folders {
			if strings.HasPrefix(p, path+"/") {
				delete(m.folders, p)
			}
		}
		return nil
	}
	return fmt.Errorf("delete %s: %w", path, ErrNotFound)
}

// PathExists implements Client.
func (m *Memory) PathExists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		return true, nil
	}
	_, ok := m.folders[path]
	return ok, nil
}

// Ping implements Client.
func (m *Memory) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.reachable {
		return fmt.Errorf("ping: repository unreachable")
	}
	return nil
}
