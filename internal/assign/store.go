// Package assign owns the persisted device-to-display assignment map.
package assign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frudas24/dynamouse/internal/pointer"
)

// Store holds the in-memory settings, which are authoritative for the
// running process, and writes every mutation through to path.
type Store struct {
	mu        sync.RWMutex
	path      string
	logger    *slog.Logger
	settings  Settings
	listeners map[int]func(Settings)
	nextID    int
	// unsaved marks in-memory changes the last write failed to persist.
	unsaved bool
	// gen counts in-process mutations so Reload can detect one racing its read.
	gen uint64
	// afterLoad runs between Reload's read and its install; tests only.
	afterLoad func()
}

// New returns a store for path with default settings.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:      path,
		logger:    logger,
		settings:  defaults(),
		listeners: make(map[int]func(Settings)),
	}
}

// Init loads persisted settings. A missing file yields defaults. An
// unreadable or corrupt file is logged, defaults are applied and the error is
// returned; the store remains usable either way.
func (s *Store) Init() error {
	settings, err := load(s.path)
	if err != nil {
		s.logger.Warn("settings ignored, using defaults", slog.String("path", s.path), slog.Any("err", err))
		settings = defaults()
	}
	settings = s.sanitize(settings)

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return err
}

// Config returns a snapshot of the current settings.
func (s *Store) Config() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// Assignments returns a snapshot of the device map.
func (s *Store) Assignments() Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Map()
}

// Update merges partial into the map, overwriting existing entries, and
// persists before returning. On a write failure the merged settings are
// still returned and kept in memory, with an error wrapping ErrPersist.
func (s *Store) Update(partial Map) (Settings, error) {
	if err := validate(partial); err != nil {
		return s.Config(), err
	}
	return s.mutate(func(next *Settings) {
		for id, display := range partial {
			next.Devices[id] = Assignment{Display: display}
		}
	})
}

// Replace swaps the whole map, with the same persistence contract as Update.
func (s *Store) Replace(full Map) (Settings, error) {
	if err := validate(full); err != nil {
		return s.Config(), err
	}
	return s.mutate(func(next *Settings) {
		next.Devices = make(map[pointer.DeviceID]Assignment, len(full))
		for id, display := range full {
			next.Devices[id] = Assignment{Display: display}
		}
	})
}

// Unassign removes the given devices from the map.
func (s *Store) Unassign(ids ...pointer.DeviceID) (Settings, error) {
	m := s.Assignments()
	for _, id := range ids {
		delete(m, id)
	}
	return s.Replace(m)
}

// SetStartupDelay stores the login startup delay in whole seconds.
func (s *Store) SetStartupDelay(seconds int) (Settings, error) {
	if seconds < 0 {
		return s.Config(), fmt.Errorf("%w: startup delay must be >= 0", ErrInvalid)
	}
	return s.mutate(func(next *Settings) {
		next.StartupDelay = seconds
	})
}

// OnUpdate registers fn to receive the settings after every mutation.
func (s *Store) OnUpdate(fn func(Settings)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Reload re-reads the file and installs its content when it differs from
// memory, notifying listeners. It reports whether anything changed. Read
// errors keep the current settings. So do an unsaved in-memory change and a
// mutation that lands while the file is being read.
func (s *Store) Reload() (bool, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	settings, err := load(s.path)
	if err != nil {
		return false, err
	}
	settings = s.sanitize(settings)
	if s.afterLoad != nil {
		s.afterLoad()
	}

	s.mu.Lock()
	if s.unsaved || s.gen != gen || reflect.DeepEqual(settings, s.settings) {
		s.mu.Unlock()
		return false, nil
	}
	s.settings = settings
	snapshot := settings.clone()
	fns := s.listenerFnsLocked()
	s.mu.Unlock()

	s.logger.Info("settings reloaded", slog.String("path", s.path), slog.Int("assignments", len(snapshot.Devices)))
	for _, l := range fns {
		l(snapshot.clone())
	}
	return true, nil
}

// Watch calls Reload every interval until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(); err != nil {
				s.logger.Debug("settings reload skipped", slog.Any("err", err))
			}
		}
	}
}

// listenerFnsLocked copies the listeners; callers hold mu.
func (s *Store) listenerFnsLocked() []func(Settings) {
	fns := make([]func(Settings), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	return fns
}

// mutate applies fn to a copy, installs it, persists and notifies.
func (s *Store) mutate(fn func(next *Settings)) (Settings, error) {
	s.mu.Lock()
	next := s.settings.clone()
	fn(&next)
	s.settings = next
	snapshot := next.clone()
	saveErr := save(s.path, snapshot)
	s.unsaved = saveErr != nil
	s.gen++
	fns := s.listenerFnsLocked()
	s.mu.Unlock()

	var err error
	if saveErr != nil {
		s.logger.Error("settings not saved", slog.String("path", s.path), slog.Any("err", saveErr))
		err = fmt.Errorf("%w: %v", ErrPersist, saveErr)
	}
	for _, l := range fns {
		l(snapshot.clone())
	}
	return snapshot, err
}

// sanitize drops entries that cannot be honoured and clamps settings.
func (s *Store) sanitize(in Settings) Settings {
	out := defaults()
	out.StartupDelay = in.StartupDelay
	if out.StartupDelay < 0 {
		s.logger.Warn("negative startup delay ignored", slog.Int("startupDelay", in.StartupDelay))
		out.StartupDelay = 0
	}
	for id, a := range in.Devices {
		if strings.TrimSpace(string(id)) == "" || strings.TrimSpace(string(a.Display)) == "" {
			s.logger.Warn("dropping incomplete assignment", slog.String("device", string(id)), slog.String("display", string(a.Display)))
			continue
		}
		out.Devices[id] = a
	}
	return out
}

// validate rejects entries with an empty device or display id.
func validate(m Map) error {
	for id, display := range m {
		if strings.TrimSpace(string(id)) == "" {
			return fmt.Errorf("%w: empty device id", ErrInvalid)
		}
		if strings.TrimSpace(string(display)) == "" {
			return fmt.Errorf("%w: empty display id for %s", ErrInvalid, id)
		}
	}
	return nil
}

// load reads settings from disk. Missing files return defaults.
func load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return Settings{}, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return defaults(), nil
	}
	settings := defaults()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if settings.Devices == nil {
		settings.Devices = make(map[pointer.DeviceID]Assignment)
	}
	return settings, nil
}

// save writes settings atomically, creating parent directories as needed.
func save(path string, s Settings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// encode renders settings as two-space indented YAML.
func encode(s Settings) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
