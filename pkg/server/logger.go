package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mikeboe/lab-dashboard/pkg/database"
)

// DBLogHandler is a slog.Handler that writes a session's activity to the
// collaboration_logs table and passes every record on to Next.
type DBLogHandler struct {
	DB        database.Execer
	SessionID uuid.UUID
	Next      slog.Handler

	attrs []slog.Attr
}

func NewDBLogHandler(db database.Execer, sessionID uuid.UUID, next slog.Handler) *DBLogHandler {
	return &DBLogHandler{
		DB:        db,
		SessionID: sessionID,
		Next:      next,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	add := func(a slog.Attr) bool {
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs[a.Key] = v
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO collaboration_logs (session_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Background context: the activity log outlives the request that caused it.
	_, err = h.DB.Exec(context.Background(), query, h.SessionID, r.Time, r.Level.String(), r.Message, metaJSON)

	if h.Next != nil && h.Next.Enabled(ctx, r.Level) {
		if nextErr := h.Next.Handle(ctx, r); nextErr != nil && err == nil {
			err = nextErr
		}
	}
	return err
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.Next != nil {
		clone.Next = h.Next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup keeps records flat in the metadata column.
func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	return h
}
