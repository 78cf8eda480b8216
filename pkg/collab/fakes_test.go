package collab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mikeboe/lab-dashboard/pkg/api"
)

var errClosedConn = errors.New("use of closed network connection")

type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent []map[string]string
}

func newFakeConn(buffer int) *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, m)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-f.closed:
		return 0, nil, errClosedConn
	default:
	}
	select {
	case data, ok := <-f.frames:
		if !ok {
			return 0, nil, io.EOF
		}
		return 1, data, nil
	case <-f.closed:
		return 0, nil, errClosedConn
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) send(frame string) {
	f.frames <- []byte(frame)
}

func (f *fakeConn) tasks() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string{}, f.sent...)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context) (api.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no connection queued")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

type fakeBackend struct {
	mu          sync.Mutex
	suggestions []api.Suggestion
	sugErr      error
	sugCalls    int

	sendErr   error
	sendCalls int
	sendGate  chan struct{}
	lastSend  api.SendEmailRequest
	generated string
}

func (b *fakeBackend) Suggestions(ctx context.Context) ([]api.Suggestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sugCalls++
	if b.sugErr != nil {
		return nil, b.sugErr
	}
	return b.suggestions, nil
}

func (b *fakeBackend) SendEmail(ctx context.Context, req api.SendEmailRequest) (*api.SendEmailResponse, error) {
	b.mu.Lock()
	b.sendCalls++
	b.lastSend = req
	gate := b.sendGate
	err := b.sendErr
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &api.SendEmailResponse{Status: "sent", To: "lab@example.org", Subject: req.Subject}, nil
}

func (b *fakeBackend) GenerateEmail(ctx context.Context, req api.GenerateEmailRequest) (*api.GeneratedEmail, error) {
	return &api.GeneratedEmail{Content: b.generated}, nil
}

func (b *fakeBackend) calls() (suggestions, sends int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sugCalls, b.sendCalls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(b Backend, d Dialer) *Controller {
	return NewController(b, d, Options{Logger: discardLogger(), AITimeout: 5 * time.Second})
}

func waitRun(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

func ptr[T any](v T) *T { return &v }
