package split

// Package split plans the delivery of a file over a transport with a hard
// per-message payload ceiling: one unit for files that fit, an ordered run
// of fixed-size transient chunks for files that don't.
