// Package access decides whether an identity may perform an action, given a
// state snapshot. It is a pure function of its inputs and never touches
// storage.
package access

import (
	"github.com/telegrab/telegrab/internal/model"
)

// Action identifies a gated operation
type Action string

const (
	ActionStart     Action = "start"
	ActionDownload  Action = "download"
	ActionStats     Action = "stats"
	ActionBan       Action = "ban"
	ActionUnban     Action = "unban"
	ActionAddAdmin  Action = "add-admin"
	ActionWarn      Action = "warn"
	ActionBroadcast Action = "broadcast"
)

// RequiresAdmin reports whether the action is restricted to the admin set
func (a Action) RequiresAdmin() bool {
	switch a {
	case ActionStats, ActionBan, ActionUnban, ActionAddAdmin, ActionWarn, ActionBroadcast:
		return true
	}
	return false
}

// Decision is the gate outcome
type Decision string

const (
	// Allow lets the action proceed
	Allow Decision = "Allow"

	// DenyBanned refuses everything for a banned identity
	DenyBanned Decision = "DenyBanned"

	// DenyNotAdmin refuses an admin-only action for a non-admin identity
	DenyNotAdmin Decision = "DenyNotAdmin"
)

// Decide applies the gate rules in order: the ban check first (banned
// identities get nothing, admin or not), then the privilege check.
func Decide(id int64, action Action, state *model.State) Decision {
	if state.IsBanned(id) {
		return DenyBanned
	}
	if action.RequiresAdmin() && !state.IsAdmin(id) {
		return DenyNotAdmin
	}
	return Allow
}
