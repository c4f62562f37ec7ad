// ABOUTME: In-memory Transport for tests of code that dispatches to the authority
// ABOUTME: Records every call and can hold invocations open to simulate in-flight requests

package dispatchtest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/2389/keepsake/internal/dispatch"
)

// Call is one recorded Invoke.
type Call struct {
	Function string
	Action   string
	Body     map[string]any
}

type response struct {
	body json.RawMessage
	err  error
}

// Transport is a scripted dispatch.Transport. Responses are keyed by action
// tag; submit-order and sign-guestbook calls are keyed by the function name.
type Transport struct {
	mu        sync.Mutex
	calls     []Call
	selects   []string
	responses map[string]response
	tables    map[string]response
	hold      chan struct{}
	entered   chan string
}

// New returns an empty fake. Unscripted actions answer {"success": true};
// unscripted tables answer 404.
func New() *Transport {
	return &Transport{
		responses: make(map[string]response),
		tables:    make(map[string]response),
		entered:   make(chan string, 64),
	}
}

// Respond scripts the body returned for action.
func (t *Transport) Respond(action string, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[action] = response{body: json.RawMessage(body)}
}

// Fail scripts an error for action.
func (t *Transport) Fail(action string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[action] = response{err: err}
}

// Reject scripts an authority rejection for action.
func (t *Transport) Reject(action string, status int, message string) {
	t.Fail(action, &dispatch.StatusError{Status: status, Message: message})
}

// SetTable scripts the rows returned when table is selected.
func (t *Transport) SetTable(table string, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tables[table] = response{body: json.RawMessage(body)}
}

// FailTable scripts an error for selects of table.
func (t *Transport) FailTable(table string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tables[table] = response{err: err}
}

// Hold makes subsequent Invoke calls block until release is called or their
// context ends. Entered reports each held call as it arrives.
func (t *Transport) Hold() (release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan struct{})
	t.hold = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			if t.hold == ch {
				t.hold = nil
			}
			t.mu.Unlock()
			close(ch)
		})
	}
}

// Entered receives the action of every Invoke as it starts.
func (t *Transport) Entered() <-chan string { return t.entered }

func (t *Transport) Invoke(ctx context.Context, function string, body json.RawMessage) (json.RawMessage, error) {
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)

	action, _ := decoded["action"].(string)
	switch function {
	case dispatch.FunctionSubmitOrder:
		action = dispatch.ActionSubmitOrder
	case dispatch.FunctionSignGuestbook:
		action = dispatch.ActionSignGuestbook
	}

	t.mu.Lock()
	t.calls = append(t.calls, Call{Function: function, Action: action, Body: decoded})
	hold := t.hold
	resp, scripted := t.responses[action]
	t.mu.Unlock()

	select {
	case t.entered <- action:
	default:
	}

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !scripted {
		return json.RawMessage(`{"success": true}`), nil
	}
	return resp.body, resp.err
}

func (t *Transport) Select(ctx context.Context, table string, newestFirst bool) (json.RawMessage, error) {
	t.mu.Lock()
	t.selects = append(t.selects, table)
	resp, ok := t.tables[table]
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, &dispatch.StatusError{Status: http.StatusNotFound, Message: "relation does not exist"}
	}
	return resp.body, resp.err
}

// Calls returns a copy of the recorded invocations.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallCount returns how many times action was invoked.
func (t *Transport) CallCount(action string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// Selects returns the tables read so far, in order.
func (t *Transport) Selects() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.selects...)
}

// SelectCount returns how many times table was read.
func (t *Transport) SelectCount(table string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.selects {
		if s == table {
			n++
		}
	}
	return n
}

var _ dispatch.Transport = (*Transport)(nil)
