package extract

// Package extract invokes yt-dlp off the main control path, bounded by a
// global concurrency limiter shared across all users and media kinds.
