// Package store persists ordered item sets (trigger rules, send
// sequences) as one JSON array per file.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"sophiatech.io/serialterm/syncutil"
)

// List is an ordered set of items bound to at most one file. Once a file
// is remembered, by Load or Save, every mutation writes the whole set
// back to it.
type List[T any] struct {
	fs    afero.Fs
	path  string
	items []T
	mu    syncutil.RWMutex
}

// NewList returns an empty, unbound list on fs.
func NewList[T any](fs afero.Fs) *List[T] {
	return &List[T]{fs: fs}
}

// Load replaces the set with the contents of path. A missing file,
// invalid JSON, or a top level that is not an array empties the set,
// forgets the remembered file, and reports false.
func (l *List[T]) Load(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.read(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not load item set")
		l.items = nil
		l.path = ""
		return false
	}

	l.items = items
	l.path = path
	log.Debug().Str("path", path).Int("items", len(items)).Msg("item set loaded")
	return true
}

func (l *List[T]) read(path string) ([]T, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, fmt.Errorf("decode %s: %w", path, ErrNotArray)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

// Save writes the set to path, creating parent directories, and
// remembers path for later mutations.
func (l *List[T]) Save(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write(path); err != nil {
		return err
	}
	l.path = path
	return nil
}

// SaveCurrent writes the set to the remembered file. It reports false
// when no file is remembered.
func (l *List[T]) SaveCurrent() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return false, nil
	}
	if err := l.write(l.path); err != nil {
		return false, err
	}
	return true, nil
}

func (l *List[T]) write(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	items := l.items
	if items == nil {
		items = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := afero.WriteFile(l.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// autosave runs after every mutation; the caller holds the lock.
func (l *List[T]) autosave() error {
	if l.path == "" {
		return nil
	}
	return l.write(l.path)
}

// New empties the set and forgets the remembered file.
func (l *List[T]) New() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.path = ""
}

// Path returns the remembered file, or "" when the set is unbound.
func (l *List[T]) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// Items returns a copy of the set in order.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns the item at i.
func (l *List[T]) Get(i int) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, fmt.Errorf("get %d: %w", i, ErrIndex)
	}
	return l.items[i], nil
}

// Add appends item.
func (l *List[T]) Add(item T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, item)
	return l.autosave()
}

// Edit replaces the item at i.
func (l *List[T]) Edit(i int, item T) error {
	return l.Update(i, func(T) T { return item })
}

// Update replaces the item at i with fn applied to it.
func (l *List[T]) Update(i int, fn func(T) T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("update %d: %w", i, ErrIndex)
	}
	l.items[i] = fn(l.items[i])
	return l.autosave()
}

// Delete removes the item at i.
func (l *List[T]) Delete(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("delete %d: %w", i, ErrIndex)
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return l.autosave()
}

// Move takes the item at from and reinserts it at to, shifting the
// items in between.
func (l *List[T]) Move(from, to int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d to %d: %w", from, to, ErrIndex)
	}
	if from == to {
		return nil
	}

	item := l.items[from]
	l.items = append(l.items[:from], l.items[from+1:]...)
	l.items = append(l.items[:to], append([]T{item}, l.items[to:]...)...)
	return l.autosave()
}
