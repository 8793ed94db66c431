package bot

// Reply texts
const (
	msgBanned       = "🚫 You are banned from using this bot."
	msgNoPermission = "❌ Permission denied."
	msgStateTrouble = "❗ Internal error: could not save state. Please retry."

	welcomeText = `🎬 YouTube & Instagram Downloader Bot

Send me a YouTube or Instagram link and I will prepare the video and the
audio for you. Files bigger than the transport limit arrive in numbered
parts.

📋 Rules
✅ Download for yourself only, no redistribution
❌ Illegal or copyright-infringing material is forbidden
⚠️ Breaking the rules gets you banned

Downloaded files are purged from our servers after 30 days.

📌 Commands:
`

	publicCommands = `/start
/help`

	adminCommands = `
/stats
/ban
/unban
/newadmin
/warn
/everyone`
)
