package download

import (
	"context"

	"github.com/telegrab/telegrab/internal/extract"
	"github.com/telegrab/telegrab/internal/model"
)

// Sender delivers outbound messages for the orchestrator.
type Sender interface {
	SendText(ctx context.Context, id int64, text string) error
	SendDocument(ctx context.Context, id int64, filePath, caption string) error
}

// Extractor is the slot-bounded extraction runner.
type Extractor interface {
	Extract(ctx context.Context, url string, kind extract.Kind) (string, error)
}

// StateKeeper is the slice of the state store the orchestrator needs.
type StateKeeper interface {
	Snapshot() *model.State
	AddUser(id int64) error
	RecordDownload(id int64, file string) error
}
