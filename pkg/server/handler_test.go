package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, resp.ID, w.Header().Get(SessionHeader))
	return resp.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRequireSession(t *testing.T) {
	env := newTestEnv(t, &labBackend{})

	tests := []struct {
		name    string
		session string
	}{
		{"Missing header", ""},
		{"Not a uuid", "abc"},
		{"Unknown session", "7f1f2e3c-52a4-4b54-9e0b-2f8d6c1a9b10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/search?q=lab", tt.session, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestSearchFlow(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	// Empty query: recents and quick links instead of results.
	w := env.do(t, http.MethodGet, "/api/search?q=", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[struct {
		Results    []search.Entry       `json:"results"`
		Recent     []search.RecentEntry `json:"recent"`
		QuickLinks []search.Entry       `json:"quick_links"`
	}](t, w)
	assert.Nil(t, empty.Results)
	assert.Empty(t, empty.Recent)
	assert.NotEmpty(t, empty.QuickLinks)

	w = env.do(t, http.MethodGet, "/api/search?q=RESEARCHER", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct {
		Results []search.Entry `json:"results"`
	}](t, w)
	require.NotEmpty(t, found.Results)

	w = env.do(t, http.MethodPost, "/api/search/select", sid, found.Results[0])
	require.Equal(t, http.StatusOK, w.Code)
	selected := decode[struct {
		Navigate string               `json:"navigate"`
		Recent   []search.RecentEntry `json:"recent"`
	}](t, w)
	assert.Equal(t, found.Results[0].Path, selected.Navigate)
	require.Len(t, selected.Recent, 1)
	assert.Equal(t, found.Results[0].Title, selected.Recent[0].Title)

	w = env.do(t, http.MethodDelete, "/api/search/recent", sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/search/recent", sid, nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSelectRequiresPath(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	w := env.do(t, http.MethodPost, "/api/search/select", sid, search.Entry{Title: "Labs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecentSurvivesSessionResume(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	entry := search.Entry{Type: search.TypePage, Title: "Labs", Path: "/labs"}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/search/select", sid, entry).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/sessions/"+sid, "", nil).Code)

	w := env.do(t, http.MethodPost, "/api/sessions", "", CreateSessionRequest{ID: sid})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/search/recent", sid, nil)
	recent := decode[[]search.RecentEntry](t, w)
	require.Len(t, recent, 1)
	assert.Equal(t, "Labs", recent[0].Title)
}

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t, &labBackend{suggested: []api.Suggestion{
		{ID: "1_2", ToLabID: ptr(2), ToLab: "CV Lab", SharedDomain: "Vision", SharedFields: []string{"Detection"}},
	}})
	sid := env.newSession(t)

	w := env.do(t, http.MethodGet, "/api/collaboration/suggestions", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]api.Suggestion](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "CV Lab", list[0].ToLab)

	snap := decode[collab.Snapshot](t, env.do(t, http.MethodGet, "/api/collaboration/state", sid, nil))
	assert.Equal(t, collab.ModeRule, snap.Mode)
	assert.Len(t, snap.Suggestions, 1)
	assert.Empty(t, snap.Recommendations)
}

func readSSE(t *testing.T, body string) []collab.Event {
	t.Helper()
	var events []collab.Event
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev collab.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestRunAIStream(t *testing.T) {
	backend := &labBackend{aiFrames: []string{
		`{"type":"status","message":"Scoring 12 labs"}`,
		`{"type":"result","data":{"recommendations":[{"lab_id":2,"lab_name":"CV Lab","lab_email":"cv@example.org","domain":"Vision","score":84,"grade":"Excellent","reason":"Shared detection work","recommended_projects":["P1","P2"]}]}}`,
	}}
	env := newTestEnv(t, backend)
	sid := env.newSession(t)

	w := env.do(t, http.MethodGet, "/api/collaboration/ai?task=find+vision+labs", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, collab.StateCompleted, last.State)
	require.Len(t, last.Recommendations, 1)

	var sawStatus bool
	for _, ev := range events {
		if ev.Status == "Scoring 12 labs" {
			sawStatus = true
		}
	}
	assert.True(t, sawStatus)

	backend.mu.Lock()
	assert.Equal(t, []string{"find vision labs"}, backend.tasks)
	backend.mu.Unlock()

	snap := decode[collab.Snapshot](t, env.do(t, http.MethodGet, "/api/collaboration/state", sid, nil))
	assert.Equal(t, collab.ModeAI, snap.Mode)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Suggestions)
	require.Len(t, snap.Recommendations, 1)

	// Draft straight from the recommendation JSON.
	w = env.do(t, http.MethodPost, "/api/collaboration/draft", sid, snap.Recommendations[0])
	require.Equal(t, http.StatusCreated, w.Code)
	d := decode[collab.EmailDraft](t, w)
	assert.Equal(t, 2, *d.ToLabID)
	assert.Equal(t, "cv@example.org", d.ToEmail)
	assert.Contains(t, d.Body, "1. P1\n2. P2")
}

func TestRunAIResultError(t *testing.T) {
	env := newTestEnv(t, &labBackend{aiFrames: []string{`{"type":"result","data":{"error":"No labs found"}}`}})
	sid := env.newSession(t)

	w := env.do(t, http.MethodGet, "/api/collaboration/ai", sid, nil)
	events := readSSE(t, w.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, collab.StateErrored, last.State)
	assert.Equal(t, "No labs found", last.Error)

	env.backend.mu.Lock()
	assert.Equal(t, []string{"Find collaboration opportunities for IDEAL Lab"}, env.backend.tasks)
	env.backend.mu.Unlock()
}

func TestEmailFlow(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	src := api.Suggestion{ID: "1_2", ToLabID: ptr(2), ToLab: "CV Lab", SharedDomain: "Vision"}
	w := env.do(t, http.MethodPost, "/api/collaboration/draft", sid, src)
	require.Equal(t, http.StatusCreated, w.Code)
	d := decode[collab.EmailDraft](t, w)
	assert.Equal(t, "Collaboration Proposal from IDEAL Labs", d.Subject)
	assert.Contains(t, d.Body, "CV Lab")
	assert.Contains(t, d.Body, "Vision")

	w = env.do(t, http.MethodPut, "/api/collaboration/draft", sid, map[string]string{"subject": "Let's talk", "body": "Edited"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/collaboration/send", sid, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, []api.SendEmailRequest{{ToLabID: 2, Subject: "Let's talk", Body: "Edited"}}, env.backend.sent())

	snap := decode[collab.Snapshot](t, env.do(t, http.MethodGet, "/api/collaboration/state", sid, nil))
	assert.Nil(t, snap.Draft)

	w = env.do(t, http.MethodPost, "/api/collaboration/send", sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendEmailErrors(t *testing.T) {
	t.Run("Missing lab id", func(t *testing.T) {
		env := newTestEnv(t, &labBackend{})
		sid := env.newSession(t)

		env.do(t, http.MethodPost, "/api/collaboration/draft", sid, map[string]string{"to_lab": "CV Lab"})
		w := env.do(t, http.MethodPost, "/api/collaboration/send", sid, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), collab.ErrInvalidLabID.Error())
		assert.Empty(t, env.backend.sent())
	})

	t.Run("Backend rejects", func(t *testing.T) {
		env := newTestEnv(t, &labBackend{sendErr: true})
		sid := env.newSession(t)

		env.do(t, http.MethodPost, "/api/collaboration/draft", sid, map[string]any{"to_lab_id": 2, "to_lab": "CV Lab"})
		w := env.do(t, http.MethodPost, "/api/collaboration/send", sid, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[struct {
			Error string             `json:"error"`
			Draft *collab.EmailDraft `json:"draft"`
		}](t, w)
		assert.Contains(t, body.Error, "Recipient lab does not have an email")
		require.NotNil(t, body.Draft)
		assert.Equal(t, "CV Lab", body.Draft.ToLabName)
	})
}

func TestCancelDraft(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	env.do(t, http.MethodPost, "/api/collaboration/draft", sid, map[string]any{"to_lab_id": 2, "to_lab": "CV Lab"})
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/collaboration/draft", sid, nil).Code)

	w := env.do(t, http.MethodPut, "/api/collaboration/draft", sid, map[string]string{"subject": "x", "body": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateEmail(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	w := env.do(t, http.MethodPost, "/api/collaboration/generate-email", sid, api.GenerateEmailRequest{FromLabID: 1, ToLabID: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Generated letter", decode[api.GeneratedEmail](t, w).Content)
}

func TestOverview(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	w := env.do(t, http.MethodGet, "/api/overview", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[Overview](t, w)
	assert.Len(t, out.Labs, 1)
	assert.Equal(t, 12, out.Researchers.TotalResearchers)
	assert.Equal(t, "IDEAL Labs", out.IdealLab.Name)

	env.backend.mu.Lock()
	env.backend.failLabs = true
	env.backend.mu.Unlock()

	w = env.do(t, http.MethodGet, "/api/overview", sid, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", sid, map[string]string{"email": "a@b.c", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", sid, map[string]string{"email": "a@b.c", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	id, err := uuid.Parse(sid)
	require.NoError(t, err)
	sess, ok := env.service.GetSession(id)
	require.True(t, ok)
	assert.Equal(t, "tok-123", sess.Auth.Token())

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/auth", sid, nil).Code)
	assert.False(t, sess.Auth.SignedIn())
}

func TestSessionLogsWithoutDatabase(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)

	w := env.do(t, http.MethodGet, "/api/sessions/"+sid+"/logs", "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestDeleteUnknownSession(t *testing.T) {
	env := newTestEnv(t, &labBackend{})

	w := env.do(t, http.MethodDelete, "/api/sessions/7f1f2e3c-52a4-4b54-9e0b-2f8d6c1a9b10", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &labBackend{})
	sid := env.newSession(t)
	env.do(t, http.MethodGet, "/api/search?q=lab", sid, nil)

	w := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "labdash_searches_total")
}
