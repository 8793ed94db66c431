package model

import (
	"slices"
	"strconv"
	"time"
)

// DownloadRecord is one delivered artifact in a user's history
type DownloadRecord struct {
	File string    `json:"file"`
	Time time.Time `json:"time"`
}

// State is the full persisted aggregate. Set-typed fields live as maps in
// memory and serialize as ordered slices on disk.
type State struct {
	Users     map[int64]struct{}
	Downloads map[int64][]DownloadRecord
	Banned    map[int64]struct{}
	Admins    map[int64]struct{}
}

// NewState returns an empty aggregate seeded with the operator as the sole
// admin, keeping the admin set non-empty from the first save on.
func NewState(operator int64) *State {
	return &State{
		Users:     make(map[int64]struct{}),
		Downloads: make(map[int64][]DownloadRecord),
		Banned:    make(map[int64]struct{}),
		Admins:    map[int64]struct{}{operator: {}},
	}
}

// IsBanned reports whether the identity is in the ban set
func (s *State) IsBanned(id int64) bool {
	_, ok := s.Banned[id]
	return ok
}

// IsAdmin reports whether the identity is in the admin set
func (s *State) IsAdmin(id int64) bool {
	_, ok := s.Admins[id]
	return ok
}

// IsUser reports whether the identity was ever observed
func (s *State) IsUser(id int64) bool {
	_, ok := s.Users[id]
	return ok
}

// UserIDs returns the known user identities in ascending order
func (s *State) UserIDs() []int64 {
	ids := make([]int64, 0, len(s.Users))
	for id := range s.Users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy, so callers can hand out snapshots without
// exposing the live maps to concurrent mutation.
func (s *State) Clone() *State {
	c := &State{
		Users:     make(map[int64]struct{}, len(s.Users)),
		Downloads: make(map[int64][]DownloadRecord, len(s.Downloads)),
		Banned:    make(map[int64]struct{}, len(s.Banned)),
		Admins:    make(map[int64]struct{}, len(s.Admins)),
	}
	for id := range s.Users {
		c.Users[id] = struct{}{}
	}
	for id, recs := range s.Downloads {
		c.Downloads[id] = slices.Clone(recs)
	}
	for id := range s.Banned {
		c.Banned[id] = struct{}{}
	}
	for id := range s.Admins {
		c.Admins[id] = struct{}{}
	}
	return c
}

// Stats is the aggregate summary shown to admins
type Stats struct {
	Users     int
	Banned    int
	Downloads int
}

// Summarize computes the admin-facing stats
func (s *State) Summarize() Stats {
	st := Stats{
		Users:  len(s.Users),
		Banned: len(s.Banned),
	}
	for _, recs := range s.Downloads {
		st.Downloads += len(recs)
	}
	return st
}

// FormatID renders an identity the way the state file keys it
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a state-file identity key
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
