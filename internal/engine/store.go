package engine

import (
	"context"

	"github.com/myrjola/briefly/internal/models"
)

// Store is the persistence collaborator. Every call may fail; the
// orchestrator degrades to fallback mode on any failure instead of aborting
// the turn.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	AppendMessage(ctx context.Context, sessionID string, msg models.Message) (int64, error)
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	SaveInsights(ctx context.Context, sessionID string, facts models.FactRecord) error
	ListInsights(ctx context.Context, sessionID string) (models.FactRecord, error)
	SaveBrief(ctx context.Context, sessionID string, b models.Brief) error
	GetBrief(ctx context.Context, sessionID string) (*models.Brief, error)
}
