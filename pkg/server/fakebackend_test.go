package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/config"
	"github.com/mikeboe/lab-dashboard/pkg/storage"
)

// labBackend fakes the lab REST API and the AI websocket.
type labBackend struct {
	mu        sync.Mutex
	sends     []api.SendEmailRequest
	sendErr   bool
	tasks     []string
	authSeen  []string
	aiFrames  []string
	failLabs  bool
	suggested []api.Suggestion
}

func (b *labBackend) handler(t *testing.T) http.Handler {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/collaboration/suggestions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.suggested)
	})
	mux.HandleFunc("/collaboration/send-email", func(w http.ResponseWriter, r *http.Request) {
		var req api.SendEmailRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.sends = append(b.sends, req)
		fail := b.sendErr
		b.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Recipient lab does not have an email"})
			return
		}
		writeJSON(w, http.StatusOK, api.SendEmailResponse{Status: "sent", To: "cv@example.org", Subject: req.Subject})
	})
	mux.HandleFunc("/collaboration/generate-email", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.GeneratedEmail{Content: "Generated letter"})
	})
	mux.HandleFunc("/labs/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fail := b.failLabs
		b.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "database down"})
			return
		}
		writeJSON(w, http.StatusOK, []api.Lab{{ID: 2, Name: "CV Lab", Domain: "Vision"}})
	})
	mux.HandleFunc("/researchers/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.ResearcherSummary{TotalResearchers: 12, TotalProjects: 4})
	})
	mux.HandleFunc("/ideal-lab", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.IdealLab{Name: "IDEAL Labs", Domain: "Vision"})
	})
	mux.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.UserCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, api.Token{AccessToken: "tok-123", TokenType: "bearer"})
	})
	mux.HandleFunc("/collaboration-ai/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req map[string]string
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		b.mu.Lock()
		b.tasks = append(b.tasks, req["task"])
		b.authSeen = append(b.authSeen, r.Header.Get("Authorization"))
		frames := append([]string{}, b.aiFrames...)
		b.mu.Unlock()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the socket until the client hangs up.
		_, _, _ = conn.ReadMessage()
	})
	return mux
}

func (b *labBackend) sent() []api.SendEmailRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.SendEmailRequest{}, b.sends...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	backend *labBackend
	service *Service
	router  *gin.Engine
}

func newTestEnv(t *testing.T, backend *labBackend) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:     srv.URL,
		AIChannelPath:  "/collaboration-ai/ws",
		OrgName:        "IDEAL Labs",
		RequestTimeout: 2 * time.Second,
		AITimeout:      2 * time.Second,
		DefaultAITask:  "Find collaboration opportunities for IDEAL Lab",
	}
	svc := NewService(cfg, storage.NewMemoryStore(), nil, discardLogger())
	t.Cleanup(func() { svc.Close(context.Background()) })

	return &testEnv{backend: backend, service: svc, router: NewRouter(NewHandler(svc))}
}
