// Package collab is the collaboration session controller. It switches
// between rule-based suggestions and a streamed AI run, and owns the email
// draft and send workflow for whichever lab the user picked.
package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/metrics"
	"github.com/mikeboe/lab-dashboard/pkg/surface"
)

type Mode string

const (
	ModeRule Mode = "rule"
	ModeAI   Mode = "ai"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRule, ModeAI:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateErrored    State = "errored"
)

// DefaultAITimeout bounds a run that never sends a terminal frame.
const DefaultAITimeout = 2 * time.Minute

var (
	ErrInvalidLabID   = errors.New("invalid lab ID")
	ErrSendInProgress = errors.New("email send already in progress")
	ErrNoDraft        = errors.New("no email draft open")
	ErrClosed         = errors.New("collaboration controller closed")
)

// Backend is the request/response side of the lab backend.
type Backend interface {
	Suggestions(ctx context.Context) ([]api.Suggestion, error)
	SendEmail(ctx context.Context, req api.SendEmailRequest) (*api.SendEmailResponse, error)
	GenerateEmail(ctx context.Context, req api.GenerateEmailRequest) (*api.GeneratedEmail, error)
}

// Dialer opens the AI suggestion channel.
type Dialer interface {
	Dial(ctx context.Context) (api.Conn, error)
}

type Options struct {
	OrgName   string
	AITimeout time.Duration
	Logger    *slog.Logger
}

// Snapshot is a consistent copy of the controller state. Only the result
// source of the active mode is filled in.
type Snapshot struct {
	Mode             Mode                   `json:"mode"`
	State            State                  `json:"state"`
	Loading          bool                   `json:"loading"`
	RunID            string                 `json:"run_id,omitempty"`
	Status           string                 `json:"status,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Suggestions      []api.Suggestion       `json:"suggestions,omitempty"`
	SuggestionsError string                 `json:"suggestions_error,omitempty"`
	Recommendations  []api.AIRecommendation `json:"recommendations,omitempty"`
	Draft            *EmailDraft            `json:"draft,omitempty"`
	Sending          bool                   `json:"sending"`
}

type Controller struct {
	backend Backend
	dialer  Dialer
	org     string
	timeout time.Duration
	logger  *slog.Logger
	modal   *surface.Surface

	mu              sync.Mutex
	mode            Mode
	state           State
	status          string
	lastErr         string
	suggestions     []api.Suggestion
	suggestionsErr  string
	fetchSeq        uint64
	recommendations []api.AIRecommendation
	current         *Run
	draft           *EmailDraft
	sending         bool
	closed          bool
}

func NewController(backend Backend, dialer Dialer, opts Options) *Controller {
	if opts.OrgName == "" {
		opts.OrgName = DefaultOrgName
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = DefaultAITimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		backend: backend,
		dialer:  dialer,
		org:     opts.OrgName,
		timeout: opts.AITimeout,
		logger:  opts.Logger,
		modal:   surface.New(),
		mode:    ModeRule,
		state:   StateIdle,
	}
	c.modal.OnDismiss(func(reason surface.Reason) {
		if reason == surface.ReasonExplicit {
			return
		}
		c.mu.Lock()
		c.draft = nil
		c.mu.Unlock()
		c.logger.Info("Email draft dismissed", "reason", reason.String())
	})
	return c
}

// DraftSurface is the email draft modal; Escape or an outside click discards
// the draft.
func (c *Controller) DraftSurface() *surface.Surface { return c.modal }

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Mode:    c.mode,
		State:   c.state,
		Loading: c.state == StateConnecting || c.state == StateStreaming,
		Status:  c.status,
		Error:   c.lastErr,
		Sending: c.sending,
	}
	if c.current != nil {
		s.RunID = c.current.ID
	}
	switch c.mode {
	case ModeRule:
		s.Suggestions = append([]api.Suggestion{}, c.suggestions...)
		s.SuggestionsError = c.suggestionsErr
	case ModeAI:
		s.Recommendations = append([]api.AIRecommendation{}, c.recommendations...)
	}
	if c.draft != nil {
		d := *c.draft
		s.Draft = &d
	}
	return s
}

// SetMode switches the result source. Switching to rule mode fetches the
// rule-based suggestions right away.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mode = mode
	c.mu.Unlock()

	if mode == ModeRule {
		_, err := c.FetchRuleBasedSuggestions(ctx)
		return err
	}
	return nil
}

// FetchRuleBasedSuggestions loads the suggestion list once. On failure the
// previous list is kept and the error is both recorded and returned.
func (c *Controller) FetchRuleBasedSuggestions(ctx context.Context) ([]api.Suggestion, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	list, err := c.backend.Suggestions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.fetchSeq {
		// A newer fetch owns the list.
		if err != nil {
			return nil, err
		}
		return list, nil
	}
	if err != nil {
		c.suggestionsErr = err.Error()
		c.logger.Error("Failed to fetch suggestions", "error", err)
		return append([]api.Suggestion{}, c.suggestions...), err
	}
	if list == nil {
		list = []api.Suggestion{}
	}
	c.suggestions = list
	c.suggestionsErr = ""
	c.logger.Info("Suggestions loaded", "count", len(list))
	return append([]api.Suggestion{}, list...), nil
}

// RunAI starts a new AI run for task, closing any previous connection first.
// The returned run streams its events until it completes, fails, is replaced
// by a newer run or the controller closes.
func (c *Controller) RunAI(ctx context.Context, task string) (*Run, error) {
	run := newRun(ctx, task, c.timeout)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		run.finish()
		return nil, ErrClosed
	}
	prev := c.current
	c.current = run
	c.mode = ModeAI
	c.state = StateConnecting
	c.status = ""
	c.lastErr = ""
	c.recommendations = nil
	c.mu.Unlock()

	if prev != nil {
		prev.stop()
		c.logger.Info("AI run superseded", "run_id", prev.ID, "by", run.ID)
	}
	c.logger.Info("AI run started", "run_id", run.ID, "task", task)
	run.emit(Event{RunID: run.ID, State: StateConnecting})

	go c.drive(run)
	return run, nil
}

func (c *Controller) drive(run *Run) {
	defer func() {
		outcome := run.outcome
		if outcome == "" {
			outcome = metrics.OutcomeSuperseded
		}
		metrics.RecordAIRun(outcome, time.Since(run.Started).Seconds())
		run.finish()
	}()

	conn, err := c.dialer.Dial(run.ctx)
	if err != nil {
		c.fail(run, fmt.Sprintf("failed to connect to AI service: %v", err))
		return
	}
	if !run.attach(conn) {
		_ = conn.Close()
		return
	}

	if err := conn.WriteJSON(map[string]string{"task": run.Task}); err != nil {
		c.fail(run, fmt.Sprintf("failed to send AI task: %v", err))
		return
	}
	if !c.apply(run, outcome{state: StateStreaming}) {
		return
	}

	// Unblock the read below when the run is cancelled or times out.
	go func() {
		<-run.ctx.Done()
		run.stop()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(run.ctx.Err(), context.DeadlineExceeded):
				c.fail(run, "AI run timed out")
			case run.isStopped():
				c.fail(run, "AI run cancelled")
			default:
				c.fail(run, "connection closed before a result arrived")
			}
			return
		}

		out := decodeFrame(data)
		if !c.apply(run, out) || out.terminal {
			return
		}
	}
}

func (c *Controller) fail(run *Run, msg string) {
	c.apply(run, outcome{terminal: true, state: StateErrored, err: msg})
}

// apply changes controller state for a frame of run. Frames of a run that is
// no longer current, or that arrive after Close, are dropped.
func (c *Controller) apply(run *Run, out outcome) bool {
	c.mu.Lock()
	if c.closed || c.current != run {
		c.mu.Unlock()
		return false
	}

	c.state = out.state
	if out.status != "" {
		c.status = out.status
	}
	if out.err != "" {
		c.lastErr = out.err
	}
	if out.state == StateCompleted {
		c.recommendations = out.recommendations
	}
	ev := Event{
		RunID:           run.ID,
		State:           c.state,
		Status:          out.status,
		Error:           out.err,
		Recommendations: out.recommendations,
	}
	c.mu.Unlock()

	if out.terminal {
		switch out.state {
		case StateCompleted:
			run.outcome = metrics.OutcomeCompleted
			c.logger.Info("AI run completed", "run_id", run.ID, "recommendations", len(out.recommendations))
		default:
			run.outcome = metrics.OutcomeErrored
			c.logger.Warn("AI run failed", "run_id", run.ID, "error", out.err)
		}
	}
	run.emit(ev)
	return true
}

// OpenDraft builds the email draft for src and shows it, replacing any draft
// already open.
func (c *Controller) OpenDraft(src DraftSource) EmailDraft {
	d := OpenEmailDraft(src, c.org)

	c.mu.Lock()
	c.draft = &d
	c.mu.Unlock()

	c.modal.Open()
	c.logger.Info("Email draft opened", "to_lab", d.ToLabName)
	return d
}

func (c *Controller) Draft() (EmailDraft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return EmailDraft{}, false
	}
	return *c.draft, true
}

// UpdateDraft replaces the editable parts of the open draft.
func (c *Controller) UpdateDraft(subject, body string) (EmailDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return EmailDraft{}, ErrNoDraft
	}
	c.draft.Subject = subject
	c.draft.Body = body
	return *c.draft, nil
}

// CancelDraft discards the open draft.
func (c *Controller) CancelDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
	c.modal.Close()
}

// SendEmail sends the open draft. A draft without a lab id is rejected
// locally. On success the draft is discarded; on failure it stays open so
// the user can retry or cancel.
func (c *Controller) SendEmail(ctx context.Context) (*api.SendEmailResponse, error) {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return nil, ErrNoDraft
	}
	if !c.draft.HasLabID() {
		c.mu.Unlock()
		metrics.RecordEmail(metrics.OutcomeRejected)
		return nil, ErrInvalidLabID
	}
	if c.sending {
		c.mu.Unlock()
		return nil, ErrSendInProgress
	}
	c.sending = true
	sent := c.draft
	req := api.SendEmailRequest{ToLabID: *sent.ToLabID, Subject: sent.Subject, Body: sent.Body}
	c.mu.Unlock()

	resp, err := c.backend.SendEmail(ctx, req)

	c.mu.Lock()
	c.sending = false
	if err != nil {
		c.mu.Unlock()
		metrics.RecordEmail(metrics.OutcomeFailed)
		c.logger.Error("Failed to send collaboration email", "to_lab_id", req.ToLabID, "error", err)
		return nil, err
	}
	discard := c.draft == sent
	if discard {
		c.draft = nil
	}
	c.mu.Unlock()

	if discard {
		c.modal.Close()
	}
	metrics.RecordEmail(metrics.OutcomeSent)
	c.logger.Info("Collaboration email sent", "to_lab_id", req.ToLabID, "to", resp.To)
	return resp, nil
}

// GenerateEmail asks the backend to write the letter from one lab to
// another. An open draft addressed to toLabID takes the generated text as
// its body.
func (c *Controller) GenerateEmail(ctx context.Context, fromLabID, toLabID int) (string, error) {
	if fromLabID <= 0 || toLabID <= 0 {
		return "", ErrInvalidLabID
	}

	resp, err := c.backend.GenerateEmail(ctx, api.GenerateEmailRequest{FromLabID: fromLabID, ToLabID: toLabID})
	if err != nil {
		c.logger.Error("Failed to generate email", "to_lab_id", toLabID, "error", err)
		return "", err
	}

	c.mu.Lock()
	if c.draft != nil && c.draft.ToLabID != nil && *c.draft.ToLabID == toLabID {
		c.draft.Body = resp.Content
	}
	c.mu.Unlock()
	return resp.Content, nil
}

// Close tears the controller down. The open connection is closed and no
// later frame changes state.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cur := c.current
	c.mu.Unlock()

	if cur != nil {
		cur.stop()
		<-cur.Done()
	}
	c.modal.Close()
}
