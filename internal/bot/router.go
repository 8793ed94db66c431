package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/telegrab/telegrab/internal/access"
	"github.com/telegrab/telegrab/internal/broadcast"
	"github.com/telegrab/telegrab/internal/download"
	"github.com/telegrab/telegrab/internal/model"
)

// Orchestrator runs one link job to completion.
type Orchestrator interface {
	HandleLink(ctx context.Context, requester int64, url string) *download.Job
}

// Broadcaster fans a message out to the user set.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []int64, text string) broadcast.Result
}

// StateAdmin is the slice of the state store the directive surface needs.
type StateAdmin interface {
	Snapshot() *model.State
	AddUser(id int64) error
	Ban(id int64) error
	Unban(id int64) error
	AddAdmin(id int64) error
	Stats() model.Stats
}

// Router turns inbound message events into directive handling and link
// jobs. It holds no transport specifics, so tests drive it with fakes.
type Router struct {
	sender     download.Sender
	state      StateAdmin
	orch       Orchestrator
	dispatcher Broadcaster
	log        *zap.Logger
}

// NewRouter wires the routing layer.
func NewRouter(sender download.Sender, state StateAdmin, orch Orchestrator, dispatcher Broadcaster, log *zap.Logger) *Router {
	return &Router{sender: sender, state: state, orch: orch, dispatcher: dispatcher, log: log}
}

// HandleLink delegates a link event to the orchestrator.
func (r *Router) HandleLink(ctx context.Context, requester int64, url string) {
	job := r.orch.HandleLink(ctx, requester, url)
	r.log.Info("link job finished",
		zap.String("job", job.ID),
		zap.Int64("requester", requester),
		zap.String("status", job.Status.String()))
}

// HandleDirective parses and executes one directive message. Non-directive
// text is ignored; the bot only reacts to commands and links.
func (r *Router) HandleDirective(ctx context.Context, senderID int64, text string) {
	cmd, recognized, err := ParseCommand(text)
	if !recognized {
		return
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		r.reply(ctx, senderID, "❗ Usage: "+usage.Usage)
		return
	}

	switch access.Decide(senderID, cmd.Kind.Action(), r.state.Snapshot()) {
	case access.DenyBanned:
		r.reply(ctx, senderID, msgBanned)
		return
	case access.DenyNotAdmin:
		r.reply(ctx, senderID, msgNoPermission)
		return
	}

	switch cmd.Kind {
	case CmdStart, CmdHelp:
		r.handleStart(ctx, senderID)
	case CmdStats:
		r.handleStats(ctx, senderID)
	case CmdBan:
		r.mutate(ctx, senderID, func() error { return r.state.Ban(cmd.TargetID) },
			fmt.Sprintf("🚫 User %d banned.", cmd.TargetID))
	case CmdUnban:
		r.mutate(ctx, senderID, func() error { return r.state.Unban(cmd.TargetID) },
			fmt.Sprintf("✅ User %d unbanned.", cmd.TargetID))
	case CmdNewAdmin:
		r.mutate(ctx, senderID, func() error { return r.state.AddAdmin(cmd.TargetID) },
			fmt.Sprintf("✅ Admin %d added.", cmd.TargetID))
	case CmdWarn:
		r.handleWarn(ctx, senderID, cmd)
	case CmdBroadcast:
		r.handleBroadcast(ctx, senderID, cmd)
	}
}

func (r *Router) handleStart(ctx context.Context, senderID int64) {
	if err := r.state.AddUser(senderID); err != nil {
		r.log.Error("user registration failed", zap.Int64("user", senderID), zap.Error(err))
		r.reply(ctx, senderID, msgStateTrouble)
		return
	}

	commands := publicCommands
	if r.state.Snapshot().IsAdmin(senderID) {
		commands += adminCommands
	}
	r.reply(ctx, senderID, welcomeText+commands)
}

func (r *Router) handleStats(ctx context.Context, senderID int64) {
	st := r.state.Stats()
	r.reply(ctx, senderID, fmt.Sprintf(
		"📊 Stats:\n👥 Users: %d\n🚫 Banned: %d\n⬇️ Downloads: %d",
		st.Users, st.Banned, st.Downloads))
}

func (r *Router) handleWarn(ctx context.Context, senderID int64, cmd *Command) {
	if err := r.sender.SendText(ctx, cmd.TargetID, "⚠️ Warning: "+cmd.Text); err != nil {
		r.reply(ctx, senderID, fmt.Sprintf("❗ Could not deliver the warning: %v", err))
		return
	}
	r.reply(ctx, senderID, "✅ Warning sent.")
}

func (r *Router) handleBroadcast(ctx context.Context, senderID int64, cmd *Command) {
	recipients := r.state.Snapshot().UserIDs()
	res := r.dispatcher.Broadcast(ctx, recipients, "📢 Announcement:\n"+cmd.Text)
	r.reply(ctx, senderID, fmt.Sprintf("✅ Delivered to %d of %d users.", res.Delivered, res.Total))
}

// mutate runs one admin state mutation and confirms it. A failed persist
// means the mutation did not happen, so the admin sees the error instead
// of a false success.
func (r *Router) mutate(ctx context.Context, senderID int64, op func() error, confirmation string) {
	if err := op(); err != nil {
		r.log.Error("state mutation failed", zap.Error(err))
		r.reply(ctx, senderID, msgStateTrouble)
		return
	}
	r.reply(ctx, senderID, confirmation)
}

func (r *Router) reply(ctx context.Context, id int64, text string) {
	if err := r.sender.SendText(ctx, id, text); err != nil {
		r.log.Warn("reply failed", zap.Int64("recipient", id), zap.Error(err))
	}
}
