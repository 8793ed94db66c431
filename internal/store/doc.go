package store

// Package store persists the user/ban/admin/download aggregate as a single
// flat JSON document, rewritten in full on every mutation. Writes go through
// a temp file and rename so a crash mid-write leaves the previous state
// intact.
