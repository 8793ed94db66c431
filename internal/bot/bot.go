package bot

import (
	"context"
	"strings"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Bot receives updates over long polling and hands them to the router.
type Bot struct {
	client *tg.Bot
	router *Router
	log    *zap.Logger
}

// New connects to the Bot API with the given token. The returned Bot does
// not poll until Start is called; the router may be set later with
// SetRouter, as long as it happens before Start.
func New(token string, router *Router, log *zap.Logger) (*Bot, error) {
	b := &Bot{router: router, log: log}

	client, err := tg.New(token, tg.WithDefaultHandler(b.onUpdate))
	if err != nil {
		return nil, err
	}
	b.client = client
	return b, nil
}

// SetRouter installs the router. The sender half of the router needs the
// API client, so wiring resolves in two steps.
func (b *Bot) SetRouter(router *Router) {
	b.router = router
}

// Client exposes the underlying API client so the sender can be built on
// the same connection.
func (b *Bot) Client() *tg.Bot {
	return b.client
}

// Start polls for updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info("bot started, polling for updates")
	b.client.Start(ctx)
}

// onUpdate routes a single incoming update. Links are handled on their own
// goroutine so a long extraction never blocks the poll loop; directives are
// quick and run inline.
func (b *Bot) onUpdate(ctx context.Context, _ *tg.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if IsLink(text) {
		go b.router.HandleLink(ctx, from, text)
		return
	}
	b.router.HandleDirective(ctx, from, text)
}
