package platform

// Package platform holds small filesystem helpers shared by the extraction
// and splitting layers.
