package bot

import (
	"regexp"
	"strings"

	"github.com/telegrab/telegrab/internal/access"
	"github.com/telegrab/telegrab/internal/model"
)

// CommandKind is the closed set of recognized directives
type CommandKind string

const (
	CmdStart     CommandKind = "start"
	CmdHelp      CommandKind = "help"
	CmdStats     CommandKind = "stats"
	CmdBan       CommandKind = "ban"
	CmdUnban     CommandKind = "unban"
	CmdNewAdmin  CommandKind = "newadmin"
	CmdWarn      CommandKind = "warn"
	CmdBroadcast CommandKind = "everyone"
)

// Action maps the directive onto its gate action
func (k CommandKind) Action() access.Action {
	switch k {
	case CmdStats:
		return access.ActionStats
	case CmdBan:
		return access.ActionBan
	case CmdUnban:
		return access.ActionUnban
	case CmdNewAdmin:
		return access.ActionAddAdmin
	case CmdWarn:
		return access.ActionWarn
	case CmdBroadcast:
		return access.ActionBroadcast
	}
	return access.ActionStart
}

// Command is one parsed directive with its validated arguments
type Command struct {
	Kind     CommandKind
	TargetID int64  // ban, unban, newadmin, warn
	Text     string // warn, everyone
}

// UsageError carries the usage line replied to a malformed directive
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// Directive usage lines
const (
	usageBan      = "/ban USER_ID"
	usageUnban    = "/unban USER_ID"
	usageNewAdmin = "/newadmin USER_ID"
	usageWarn     = "/warn USER_ID text"
	usageEveryone = "/everyone text"
)

var linkPattern = regexp.MustCompile(`^https?://`)

// IsLink reports whether the message text is a media link event
func IsLink(text string) bool {
	return linkPattern.MatchString(text)
}

// ParseCommand parses a whitespace-delimited directive. It returns
// (nil, false, nil) for text that is no directive at all, a *UsageError for
// a recognized directive with malformed arguments, and the Command
// otherwise. Unknown slash-commands are treated as non-directives.
func ParseCommand(text string) (*Command, bool, error) {
	if !strings.HasPrefix(text, "/") {
		return nil, false, nil
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	// Telegram clients append the bot handle in group chats
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	switch CommandKind(name) {
	case CmdStart:
		return &Command{Kind: CmdStart}, true, nil
	case CmdHelp:
		return &Command{Kind: CmdHelp}, true, nil
	case CmdStats:
		return &Command{Kind: CmdStats}, true, nil

	case CmdBan:
		return parseTargetOnly(CmdBan, fields, usageBan)
	case CmdUnban:
		return parseTargetOnly(CmdUnban, fields, usageUnban)
	case CmdNewAdmin:
		return parseTargetOnly(CmdNewAdmin, fields, usageNewAdmin)

	case CmdWarn:
		if len(fields) < 3 {
			return nil, true, &UsageError{Usage: usageWarn}
		}
		id, err := model.ParseID(fields[1])
		if err != nil {
			return nil, true, &UsageError{Usage: usageWarn}
		}
		return &Command{Kind: CmdWarn, TargetID: id, Text: strings.Join(fields[2:], " ")}, true, nil

	case CmdBroadcast:
		if len(fields) < 2 {
			return nil, true, &UsageError{Usage: usageEveryone}
		}
		return &Command{Kind: CmdBroadcast, Text: strings.Join(fields[1:], " ")}, true, nil
	}

	return nil, false, nil
}

func parseTargetOnly(kind CommandKind, fields []string, usage string) (*Command, bool, error) {
	if len(fields) != 2 {
		return nil, true, &UsageError{Usage: usage}
	}
	id, err := model.ParseID(fields[1])
	if err != nil {
		return nil, true, &UsageError{Usage: usage}
	}
	return &Command{Kind: kind, TargetID: id}, true, nil
}
