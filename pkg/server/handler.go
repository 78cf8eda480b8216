package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/metrics"
	"github.com/mikeboe/lab-dashboard/pkg/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionHeader carries the dashboard session id on every /api call.
const SessionHeader = "X-Dashboard-Session"

const sessionKey = "dashboardSession"

type Handler struct {
	Service *Service
	MCP     http.Handler
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s, MCP: s.MCPHandler()}
}

// NewRouter builds the gin engine with CORS and every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", SessionHeader},
		ExposeHeaders:    []string{"Content-Length", SessionHeader},
		AllowCredentials: true,
	}))

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Any("/mcp", gin.WrapH(h.MCP))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := r.Group("/api")
	{
		group.POST("/sessions", h.createSession)
		group.DELETE("/sessions/:id", h.deleteSession)
		group.GET("/sessions/:id/logs", h.getSessionLogs)
	}

	s := group.Group("", h.requireSession)
	{
		s.POST("/auth/login", h.login)
		s.DELETE("/auth", h.logout)

		// Search Routes
		s.GET("/search", h.search)
		s.GET("/search/recent", h.listRecent)
		s.POST("/search/select", h.selectResult)
		s.DELETE("/search/recent", h.clearRecent)

		// Collaboration Routes
		s.GET("/collaboration/suggestions", h.suggestions)
		s.GET("/collaboration/ai", h.runAI)
		s.GET("/collaboration/state", h.state)
		s.POST("/collaboration/draft", h.openDraft)
		s.PUT("/collaboration/draft", h.updateDraft)
		s.DELETE("/collaboration/draft", h.cancelDraft)
		s.POST("/collaboration/send", h.sendEmail)
		s.POST("/collaboration/generate-email", h.generateEmail)

		s.GET("/overview", h.overview)
	}
}

func (h *Handler) requireSession(c *gin.Context) {
	id, err := uuid.Parse(c.GetHeader(SessionHeader))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + SessionHeader + " header"})
		return
	}
	sess, ok := h.Service.GetSession(id)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

// errorStatus maps an error to the HTTP status the browser sees. Backend
// client errors pass through; anything else from the backend is a bad
// gateway.
func errorStatus(err error) int {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, collab.ErrInvalidLabID):
		return http.StatusBadRequest
	case errors.Is(err, collab.ErrNoDraft), errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, collab.ErrSendInProgress):
		return http.StatusConflict
	case errors.Is(err, collab.ErrClosed):
		return http.StatusGone
	case errors.Is(err, ErrNoActivityLog):
		return http.StatusNotImplemented
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := h.Service.CreateSession(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header(SessionHeader, sess.ID.String())
	c.JSON(http.StatusCreated, gin.H{
		"id":        sess.ID,
		"created":   sess.Created,
		"signed_in": sess.Auth.SignedIn(),
	})
}

func (h *Handler) deleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}
	if err := h.Service.CloseSession(c.Request.Context(), id); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSessionLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetSessionLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := currentSession(c)
	if err := h.Service.Login(c.Request.Context(), sess, req.Email, req.Password); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_in": true})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), currentSession(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) search(c *gin.Context) {
	sess := currentSession(c)
	results := sess.Search.SetQuery(c.Query("q"))

	// No query: the browser shows recent searches and quick links instead.
	if results == nil {
		c.JSON(http.StatusOK, gin.H{
			"query":       c.Query("q"),
			"results":     nil,
			"recent":      nonNilRecent(sess.Search.Recent()),
			"quick_links": h.Service.Index.QuickLinks(),
		})
		return
	}

	metrics.RecordSearch(len(results))
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": results})
}

func (h *Handler) listRecent(c *gin.Context) {
	c.JSON(http.StatusOK, nonNilRecent(currentSession(c).Search.Recent()))
}

func (h *Handler) selectResult(c *gin.Context) {
	var entry search.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if entry.Title == "" || entry.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and path are required"})
		return
	}

	sess := currentSession(c)
	if err := sess.Search.Select(c.Request.Context(), entry); err != nil {
		// Navigation still happens; only the recent list was not saved.
		sess.Logger.Warn("Failed to save recent search", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"navigate": sess.LastPath(),
		"recent":   nonNilRecent(sess.Search.Recent()),
	})
}

func (h *Handler) clearRecent(c *gin.Context) {
	if err := currentSession(c).Search.ClearRecent(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNilRecent(list []search.RecentEntry) []search.RecentEntry {
	if list == nil {
		return []search.RecentEntry{}
	}
	return list
}

func (h *Handler) suggestions(c *gin.Context) {
	sess := currentSession(c)
	err := sess.Collab.SetMode(c.Request.Context(), collab.ModeRule)
	snap := sess.Collab.Snapshot()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error(), "suggestions": snap.Suggestions})
		return
	}
	c.JSON(http.StatusOK, snap.Suggestions)
}

func (h *Handler) runAI(c *gin.Context) {
	task := c.Query("task")
	if task == "" {
		task = h.Service.Cfg.DefaultAITask
	}

	sess := currentSession(c)
	// The run lives as long as this request: a browser leaving the page
	// closes the AI connection.
	run, err := sess.Collab.RunAI(c.Request.Context(), task)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Transfer-Encoding", "chunked")

	for event := range run.Events() {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		_, _ = c.Writer.Write([]byte("data: "))
		_, _ = c.Writer.Write(data)
		_, _ = c.Writer.Write([]byte("\n\n"))
		c.Writer.Flush()
	}
}

func (h *Handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Collab.Snapshot())
}

func (h *Handler) openDraft(c *gin.Context) {
	var src collab.DraftSource
	if err := c.ShouldBindJSON(&src); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, currentSession(c).Collab.OpenDraft(src))
}

func (h *Handler) updateDraft(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := currentSession(c).Collab.UpdateDraft(req.Subject, req.Body)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) cancelDraft(c *gin.Context) {
	currentSession(c).Collab.CancelDraft()
	c.Status(http.StatusNoContent)
}

func (h *Handler) sendEmail(c *gin.Context) {
	sess := currentSession(c)
	resp, err := sess.Collab.SendEmail(c.Request.Context())
	if err != nil {
		body := gin.H{"error": err.Error()}
		if d, ok := sess.Collab.Draft(); ok {
			body["draft"] = d
		}
		c.JSON(errorStatus(err), body)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) generateEmail(c *gin.Context) {
	var req api.GenerateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := currentSession(c).Collab.GenerateEmail(c.Request.Context(), req.FromLabID, req.ToLabID)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.GeneratedEmail{Content: content})
}

func (h *Handler) overview(c *gin.Context) {
	out, err := h.Service.Overview(c.Request.Context(), currentSession(c))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
