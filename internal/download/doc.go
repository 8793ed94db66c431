package download

// Package download implements the per-link orchestration pipeline: gate the
// requester, extract the video then the audio through the bounded runner,
// deliver each artifact in transport-sized units, and record the outcome.
