package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/models"
	"github.com/myrjola/briefly/internal/sqlite"
)

var (
	ErrSessionNotFound = errors.NewSentinel("session not found")
	ErrBriefNotFound   = errors.NewSentinel("brief not found")
)

// SessionRepository persists discovery sessions, their transcripts, the
// extracted insights, and the final brief.
type SessionRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewSessionRepository(dbs *sqlite.Database, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		dbs:    dbs,
		logger: logger.With("source", "SessionRepository"),
	}
}

type sessionRow struct {
	ID              string    `db:"id"`
	Phase           string    `db:"phase"`
	Topic           string    `db:"topic"`
	Sophistication  string    `db:"sophistication"`
	EngagementScore int64     `db:"engagement_score"`
	Depth           int64     `db:"depth"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var row sessionRow
	stmt := `SELECT id, phase, topic, sophistication, engagement_score, depth, created_at, updated_at
	FROM discovery_sessions WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "read session", slog.String("session_id", id))
	}
	session := models.Session{
		ID:              row.ID,
		Phase:           models.Phase(row.Phase),
		Topic:           row.Topic,
		Sophistication:  models.Sophistication(row.Sophistication),
		EngagementScore: row.EngagementScore,
		Depth:           row.Depth,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	return &session, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	stmt := `INSERT INTO discovery_sessions (id, phase, topic, sophistication, engagement_score, depth)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		session.ID, string(session.Phase), session.Topic, string(session.Sophistication),
		session.EngagementScore, session.Depth); err != nil {
		return errors.Wrap(err, "insert session", slog.String("session_id", session.ID))
	}
	return nil
}

func (r *SessionRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	stmt := `UPDATE discovery_sessions
	SET phase = ?, topic = ?, sophistication = ?, engagement_score = ?, depth = ?,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		string(session.Phase), session.Topic, string(session.Sophistication),
		session.EngagementScore, session.Depth, session.ID); err != nil {
		return errors.Wrap(err, "update session", slog.String("session_id", session.ID))
	}
	return nil
}

func (r *SessionRepository) AppendMessage(
	ctx context.Context,
	sessionID string,
	msg models.Message,
) (int64, error) {
	stmt := `INSERT INTO messages (session_id, role, content, question_id) VALUES (?, ?, ?, ?)`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		sessionID, string(msg.Role), msg.Content, msg.QuestionID)
	if err != nil {
		return 0, errors.Wrap(err, "insert message", slog.String("session_id", sessionID))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "message insert id")
	}
	return id, nil
}

type messageRow struct {
	ID         int64     `db:"id"`
	Role       string    `db:"role"`
	Content    string    `db:"content"`
	QuestionID string    `db:"question_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// ListMessages returns the session's transcript in insertion order.
func (r *SessionRepository) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var rows []messageRow
	stmt := `SELECT id, role, content, question_id, created_at
	FROM messages WHERE session_id = ? ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt, sessionID); err != nil {
		return nil, errors.Wrap(err, "query messages", slog.String("session_id", sessionID))
	}
	messages := make([]models.Message, len(rows))
	for i, row := range rows {
		messages[i] = models.Message{
			ID:         row.ID,
			Role:       models.Role(row.Role),
			Content:    row.Content,
			QuestionID: row.QuestionID,
			CreatedAt:  row.CreatedAt,
		}
	}
	return messages, nil
}

// SaveInsights upserts the non-empty fact-record fields. Values only ever
// grow more specific: an empty extraction never clears a stored insight.
func (r *SessionRepository) SaveInsights(
	ctx context.Context,
	sessionID string,
	facts models.FactRecord,
) error {
	stmt := `INSERT INTO insights (session_id, field, value) VALUES (?, ?, ?)
	ON CONFLICT (session_id, field) DO UPDATE SET value = excluded.value`
	for _, field := range facts.Fields() {
		if field.Value == "" {
			continue
		}
		if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID, field.Name, field.Value); err != nil {
			return errors.Wrap(err, "upsert insight",
				slog.String("session_id", sessionID), slog.String("field", field.Name))
		}
	}
	return nil
}

// ListInsights reconstructs the fact record from the stored insights.
func (r *SessionRepository) ListInsights(ctx context.Context, sessionID string) (models.FactRecord, error) {
	var rows []struct {
		Field string `db:"field"`
		Value string `db:"value"`
	}
	stmt := `SELECT field, value FROM insights WHERE session_id = ?`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt, sessionID); err != nil {
		return models.FactRecord{}, errors.Wrap(err, "query insights", slog.String("session_id", sessionID))
	}
	var facts models.FactRecord
	for _, row := range rows {
		facts.SetField(row.Field, row.Value)
	}
	return facts, nil
}

// SaveBrief stores the brief for the session. A brief is written exactly once:
// replays are ignored so the first synthesis stays authoritative.
func (r *SessionRepository) SaveBrief(ctx context.Context, sessionID string, b models.Brief) error {
	sections, err := json.Marshal(b.Sections)
	if err != nil {
		return errors.Wrap(err, "marshal brief sections")
	}
	stmt := `INSERT OR IGNORE INTO briefs (session_id, opening, sections) VALUES (?, ?, ?)`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, sessionID, b.Opening, string(sections)); err != nil {
		return errors.Wrap(err, "insert brief", slog.String("session_id", sessionID))
	}
	return nil
}

// GetBrief returns the stored brief or ErrBriefNotFound.
func (r *SessionRepository) GetBrief(ctx context.Context, sessionID string) (*models.Brief, error) {
	var row struct {
		Opening  string `db:"opening"`
		Sections string `db:"sections"`
	}
	stmt := `SELECT opening, sections FROM briefs WHERE session_id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBriefNotFound
		}
		return nil, errors.Wrap(err, "read brief", slog.String("session_id", sessionID))
	}
	var sections []models.BriefSection
	if err := json.Unmarshal([]byte(row.Sections), &sections); err != nil {
		return nil, errors.Wrap(err, "unmarshal brief sections")
	}
	return &models.Brief{Opening: row.Opening, Sections: sections}, nil
}
