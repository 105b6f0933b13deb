package storage

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// Op names a Mem operation for failure injection and call counting.
type Op string

// Mem operations.
const (
	OpList   Op = "list"
	OpRead   Op = "read"
	OpExists Op = "exists"
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpDelete Op = "delete"
)

// Mem is an in-memory Provider. Directories are implicit.
type Mem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]struct{}
	fail  map[Op]error
	calls map[Op]int
}

// NewMem returns an empty in-memory provider.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
		fail:  make(map[Op]error),
		calls: make(map[Op]int),
	}
}

// Fail makes every subsequent op return err. A nil err clears the failure.
func (m *Mem) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls returns how many times op was invoked.
func (m *Mem) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Mkdir registers an explicit directory, e.g. to put one where a note is expected.
func (m *Mem) Mkdir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path.Clean(p)] = struct{}{}
}

func (m *Mem) enter(op Op) error {
	m.calls[op]++
	return m.fail[op]
}

// List implements Provider.
func (m *Mem) List(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	prefix := ""
	if d := path.Clean(dir); d != "." && d != "" {
		prefix = d + "/"
	}
	out := []string{}
	for p := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		name := strings.TrimPrefix(p, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Read implements Provider.
func (m *Mem) Read(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpRead); err != nil {
		return nil, err
	}
	data, ok := m.files[path.Clean(p)]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Exists implements Provider.
func (m *Mem) Exists(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpExists); err != nil {
		return false, err
	}
	p = path.Clean(p)
	if _, ok := m.dirs[p]; ok {
		return false, fmt.Errorf("%w: %s", ErrIsDir, p)
	}
	_, ok := m.files[p]
	return ok, nil
}

// Create implements Provider.
func (m *Mem) Create(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreate); err != nil {
		return err
	}
	p = path.Clean(p)
	if _, ok := m.files[p]; ok {
		return fmt.Errorf("storage: create %s: %w", p, fs.ErrExist)
	}
	m.files[p] = append([]byte(nil), content...)
	return nil
}

// Write implements Provider.
func (m *Mem) Write(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpWrite); err != nil {
		return err
	}
	m.files[path.Clean(p)] = append([]byte(nil), content...)
	return nil
}

// Delete implements Provider.
func (m *Mem) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	p = path.Clean(p)
	if _, ok := m.files[p]; !ok {
		return fmt.Errorf("storage: delete %s: %w", p, fs.ErrNotExist)
	}
	delete(m.files, p)
	return nil
}

var _ Provider = (*Mem)(nil)
var _ Provider = (*FS)(nil)
