// Package bot is the Telegram surface: it polls for updates, classifies
// each inbound message as a media link or a directive, and routes it to
// the orchestrator or the directive handlers.
package bot
