// ABOUTME: Dispatch sends one command to the authority and decodes its typed result
// ABOUTME: Fetch performs credential-free bulk reads used to populate caches

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/keepsake/internal/resource"
)

// logger is resolved per call so a default installed by main after package
// init is honoured.
func logger() *slog.Logger {
	return slog.Default().With("component", "dispatch")
}

// Dispatch validates cmd locally, sends it with creds and decodes the
// authority's answer into R. It never touches local state. Local presence
// failures wrap ErrMissingField and send nothing; every other failure is
// a *Failure.
func Dispatch[R any](ctx context.Context, t Transport, cmd Command[R], creds Credentials) (R, error) {
	var zero R
	action := cmd.Action()

	if err := cmd.Validate(); err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}
	function, body, err := cmd.request(creds)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("%s: encoding request: %w", action, err)
	}

	start := time.Now()
	resp, err := t.Invoke(ctx, function, raw)
	if err != nil {
		f := classify(action, err)
		logger().Warn("dispatch failed", "action", action, "kind", f.Kind, "status", f.Status, "error", err)
		return zero, f
	}
	if msg := embeddedError(resp); msg != "" {
		logger().Warn("dispatch rejected", "action", action, "message", msg)
		return zero, &Failure{Action: action, Kind: Rejected, Status: http.StatusOK, Message: msg}
	}

	result, err := decodeResult[R](resp)
	if err != nil {
		logger().Warn("dispatch response malformed", "action", action, "error", err)
		return zero, malformed(action, err)
	}
	logger().Debug("dispatch succeeded", "action", action, "duration", time.Since(start))
	return result, nil
}

// Fetch reads the whole collection for kind. T must be the item variant of
// that collection.
func Fetch[T resource.Item](ctx context.Context, t Transport, kind resource.Kind) ([]T, error) {
	action := "select " + kind.Table()

	resp, err := t.Select(ctx, kind.Table(), kind.NewestFirst())
	if err != nil {
		f := classify(action, err)
		logger().Warn("fetch failed", "table", kind.Table(), "kind", f.Kind, "error", err)
		return nil, f
	}

	var items []T
	if err := json.Unmarshal(resp, &items); err != nil {
		logger().Warn("fetch response malformed", "table", kind.Table(), "error", err)
		return nil, malformed(action, err)
	}
	if items == nil {
		items = []T{}
	}
	logger().Debug("fetch succeeded", "table", kind.Table(), "count", len(items))
	return items, nil
}

// embeddedError returns the message of an {"error": "..."} object sent with a
// success status.
func embeddedError(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return ""
	}
	return body.Error
}

type checker interface {
	check() error
}

// decodeResult accepts the item itself or an array whose first element is
// the item. Item results must carry an authority-assigned identifier.
func decodeResult[R any](data []byte) (R, error) {
	var out R
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return out, errors.New("empty response body")
	}

	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return out, err
		}
		if len(elems) == 0 {
			return out, errors.New("empty result array")
		}
		trimmed = bytes.TrimSpace(elems[0])
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return out, errors.New("result is not an object")
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, err
	}

	switch v := any(out).(type) {
	case checker:
		if err := v.check(); err != nil {
			return out, err
		}
	case resource.Item:
		if v.ItemID() == "" {
			return out, errors.New("result has no identifier")
		}
	}
	return out, nil
}
