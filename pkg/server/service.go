package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/config"
	"github.com/mikeboe/lab-dashboard/pkg/metrics"
	"github.com/mikeboe/lab-dashboard/pkg/search"
	"github.com/mikeboe/lab-dashboard/pkg/session"
	"github.com/mikeboe/lab-dashboard/pkg/storage"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActivityLog   = errors.New("activity log requires the postgres storage backend")
)

// DBTX is the part of a pgx pool the service uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Backend is what a dashboard session needs from the lab backend.
type Backend interface {
	collab.Backend
	Labs(ctx context.Context) ([]api.Lab, error)
	ResearcherSummary(ctx context.Context) (*api.ResearcherSummary, error)
	IdealLab(ctx context.Context) (*api.IdealLab, error)
	Login(ctx context.Context, email, password string) (*api.Token, error)
}

// Session is one browser's dashboard state.
type Session struct {
	ID      uuid.UUID
	Created time.Time
	Auth    *session.Session
	Search  *search.Modal
	Collab  *collab.Controller
	Backend Backend
	Logger  *slog.Logger

	mu       sync.Mutex
	lastPath string
}

// Navigate records where the last search selection pointed; the browser
// follows it.
func (s *Session) Navigate(path string) {
	s.mu.Lock()
	s.lastPath = path
	s.mu.Unlock()
}

func (s *Session) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

type Service struct {
	Cfg    *config.Config
	Store  storage.Store
	DB     DBTX
	Index  *search.Index
	Logger *slog.Logger

	// NewBackend and NewDialer build a session's collaborators.
	NewBackend func(tokens api.TokenSource, logger *slog.Logger) Backend
	NewDialer  func(tokens api.TokenSource) collab.Dialer

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewService wires a service to the lab backend named in cfg. db may be nil,
// in which case no activity log is kept.
func NewService(cfg *config.Config, store storage.Store, db DBTX, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Cfg:    cfg,
		Store:  store,
		DB:     db,
		Index:  search.NewIndex(search.DefaultCatalog()),
		Logger: logger,
		NewBackend: func(tokens api.TokenSource, logger *slog.Logger) Backend {
			return api.NewClient(cfg.APIBaseURL,
				api.WithTimeout(cfg.RequestTimeout),
				api.WithTokenSource(tokens),
				api.WithLogger(logger))
		},
		NewDialer: func(tokens api.TokenSource) collab.Dialer {
			return api.NewAIChannel(cfg.AIChannelURL(), tokens)
		},
		sessions: make(map[uuid.UUID]*Session),
	}
}

type CreateSessionRequest struct {
	// ID resumes the stored state of an earlier session.
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
}

func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	id := uuid.New()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid session id: %w", err)
		}
		id = parsed
	}

	s.mu.RLock()
	existing, active := s.sessions[id]
	s.mu.RUnlock()
	if active {
		return existing, nil
	}

	if s.DB != nil {
		_, err := s.DB.Exec(ctx,
			"INSERT INTO dashboard_sessions (id) VALUES ($1) ON CONFLICT (id) DO UPDATE SET closed_at = NULL", id)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	logger := s.sessionLogger(id)
	store := storage.Namespace(s.Store, "session:"+id.String()+":")

	auth := session.New(store, logger)
	if err := auth.Init(ctx); err != nil {
		return nil, err
	}
	if req.Token != "" {
		if err := auth.SignIn(ctx, req.Token); err != nil {
			return nil, err
		}
	}

	backend := s.NewBackend(auth, logger)
	sess := &Session{
		ID:      id,
		Created: time.Now(),
		Auth:    auth,
		Backend: backend,
		Logger:  logger,
	}
	sess.Search = search.NewModal(s.Index, search.NewRecent(store, logger), sess)
	sess.Search.Open(ctx)
	sess.Collab = collab.NewController(backend, s.NewDialer(auth), collab.Options{
		OrgName:   s.Cfg.OrgName,
		AITimeout: s.Cfg.AITimeout,
		Logger:    logger,
	})

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		sess.Collab.Close()
		return existing, nil
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logger.Info("Session created", "signed_in", auth.SignedIn())
	return sess, nil
}

func (s *Service) sessionLogger(id uuid.UUID) *slog.Logger {
	if s.DB == nil {
		return s.Logger.With("session_id", id.String())
	}
	return slog.New(NewDBLogHandler(s.DB, id, s.Logger.Handler())).With("session_id", id.String())
}

func (s *Service) GetSession(id uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// CloseSession tears a session down. Its stored state stays so the same id
// can be resumed.
func (s *Service) CloseSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.Collab.Close()
	sess.Search.Surface().Close()
	metrics.ActiveSessions.Dec()
	sess.Logger.Info("Session closed")

	if s.DB != nil {
		if _, err := s.DB.Exec(ctx, "UPDATE dashboard_sessions SET closed_at = NOW() WHERE id = $1", id); err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}
	}
	return nil
}

// Close tears down every open session.
func (s *Service) Close(ctx context.Context) {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.CloseSession(ctx, id); err != nil {
			s.Logger.Warn("Failed to close session", "session_id", id, "error", err)
		}
	}
}

// Login signs the session in with the backend's credentials flow.
func (s *Service) Login(ctx context.Context, sess *Session, email, password string) error {
	tok, err := sess.Backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := sess.Auth.SignIn(ctx, tok.AccessToken); err != nil {
		return err
	}
	sess.Logger.Info("Signed in", "email", email)
	return nil
}

func (s *Service) Logout(ctx context.Context, sess *Session) error {
	if err := sess.Auth.SignOut(ctx); err != nil {
		return err
	}
	sess.Logger.Info("Signed out")
	return nil
}

type Overview struct {
	IdealLab    *api.IdealLab          `json:"ideal_lab"`
	Labs        []api.Lab              `json:"labs"`
	Researchers *api.ResearcherSummary `json:"researchers"`
}

// Overview loads the dashboard landing data. The three requests run
// concurrently; the first failure cancels the rest.
func (s *Service) Overview(ctx context.Context, sess *Session) (*Overview, error) {
	out := &Overview{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		labs, err := sess.Backend.Labs(gctx)
		out.Labs = labs
		return err
	})
	g.Go(func() error {
		summary, err := sess.Backend.ResearcherSummary(gctx)
		out.Researchers = summary
		return err
	})
	g.Go(func() error {
		ideal, err := sess.Backend.IdealLab(gctx)
		out.IdealLab = ideal
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.Labs == nil {
		out.Labs = []api.Lab{}
	}
	return out, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetSessionLogs(ctx context.Context, id uuid.UUID) ([]LogEntry, error) {
	if s.DB == nil {
		return nil, ErrNoActivityLog
	}

	query := `
		SELECT id, timestamp, level, message, metadata
		FROM collaboration_logs
		WHERE session_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
