package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramSender implements the outbound send surface over the Bot API.
// Both sends are fire-and-report-failure; the Bot API client enforces its
// own request timeouts, so neither blocks indefinitely.
type TelegramSender struct {
	client *tg.Bot
}

// NewTelegramSender wraps an API client.
func NewTelegramSender(client *tg.Bot) *TelegramSender {
	return &TelegramSender{client: client}
}

// SendText delivers a plain text message to the identity's private chat.
func (s *TelegramSender) SendText(ctx context.Context, id int64, text string) error {
	_, err := s.client.SendMessage(ctx, &tg.SendMessageParams{
		ChatID: id,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send text to %d: %w", id, err)
	}
	return nil
}

// SendDocument uploads the file as a document with the given caption.
func (s *TelegramSender) SendDocument(ctx context.Context, id int64, filePath, caption string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	_, err = s.client.SendDocument(ctx, &tg.SendDocumentParams{
		ChatID: id,
		Document: &models.InputFileUpload{
			Filename: filepath.Base(filePath),
			Data:     f,
		},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("send document to %d: %w", id, err)
	}
	return nil
}
