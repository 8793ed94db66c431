package model

// Package model defines domain data structures shared across the bot: the
// persisted state aggregate, per-user download records, and the job status
// enum with explicit state transitions.
