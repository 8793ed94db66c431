package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telegrab/telegrab/internal/model"
)

// ErrPersistence marks a failed state write. Callers must treat the
// triggering operation as failed: success is only reported after the
// aggregate is durable.
var ErrPersistence = errors.New("state persistence failed")

// State file permissions
const (
	stateFilePermissions = 0644
)

// diskState is the on-disk shape of the aggregate. Sets serialize as
// ordered sequences; the downloads map is keyed by the decimal identity.
type diskState struct {
	Users     []int64                           `json:"users"`
	Downloads map[string][]model.DownloadRecord `json:"downloads"`
	Banned    []int64                           `json:"banned_users"`
	Admins    []int64                           `json:"admins"`
}

// Store is the durable state handle. All mutators serialize behind one
// mutex and rewrite the whole aggregate before returning.
type Store struct {
	mu    sync.Mutex
	path  string
	state *model.State
	log   *zap.Logger
}

// Open loads the aggregate from path, or seeds a fresh one with the
// operator as the sole admin when the file does not exist.
func Open(path string, operator int64, log *zap.Logger) (*Store, error) {
	s := &Store{path: path, log: log}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.state = model.NewState(operator)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	var ds diskState
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode state file %s: %w", path, err)
	}

	st := model.NewState(operator)
	for _, id := range ds.Users {
		st.Users[id] = struct{}{}
	}
	for _, id := range ds.Banned {
		st.Banned[id] = struct{}{}
	}
	for _, id := range ds.Admins {
		st.Admins[id] = struct{}{}
	}
	for key, recs := range ds.Downloads {
		id, err := model.ParseID(key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode downloads key %q: %w", key, err)
		}
		st.Downloads[id] = recs
	}

	s.state = st
	return s, nil
}

// Snapshot returns a deep copy of the current aggregate.
func (s *Store) Snapshot() *model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Stats summarizes the current aggregate.
func (s *Store) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Summarize()
}

// AddUser records the identity in the known-user set. Membership is
// permanent once added.
func (s *Store) AddUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsUser(id) {
		return nil
	}
	s.state.Users[id] = struct{}{}
	return s.save()
}

// RecordDownload appends one history record for the identity, adding the
// identity to the user set first so the downloads-imply-user invariant
// holds even for direct calls.
func (s *Store) RecordDownload(id int64, file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Users[id] = struct{}{}
	s.state.Downloads[id] = append(s.state.Downloads[id], model.DownloadRecord{
		File: file,
		Time: time.Now(),
	})
	return s.save()
}

// Ban adds the identity to the ban set. Prior records are retained.
func (s *Store) Ban(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsBanned(id) {
		return nil
	}
	s.state.Banned[id] = struct{}{}
	return s.save()
}

// Unban removes the identity from the ban set.
func (s *Store) Unban(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsBanned(id) {
		return nil
	}
	delete(s.state.Banned, id)
	return s.save()
}

// AddAdmin grants the identity admin privilege. There is no removal
// operation, so the admin set can only grow.
func (s *Store) AddAdmin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsAdmin(id) {
		return nil
	}
	s.state.Admins[id] = struct{}{}
	return s.save()
}

// save rewrites the whole aggregate via a temp file and rename, so a crash
// mid-write cannot truncate the previous state. Caller holds the mutex.
func (s *Store) save() error {
	ds := diskState{
		Users:     setToSlice(s.state.Users),
		Downloads: make(map[string][]model.DownloadRecord, len(s.state.Downloads)),
		Banned:    setToSlice(s.state.Banned),
		Admins:    setToSlice(s.state.Admins),
	}
	for id, recs := range s.state.Downloads {
		ds.Downloads[model.FormatID(id)] = recs
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Chmod(tmpPath, stateFilePermissions); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.log != nil {
		s.log.Debug("state saved", zap.String("path", s.path))
	}
	return nil
}

// setToSlice orders the set so repeated saves of the same aggregate produce
// identical files.
func setToSlice(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
