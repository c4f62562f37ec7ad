// ABOUTME: Tests for the operator console REPL
// ABOUTME: Command parsing, id matching, table rendering and a scripted session

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/console"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/dispatch/dispatchtest"
	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/prompt"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

func init() {
	color.NoColor = true
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
	}{
		{"/help", "help", []string{}},
		{"  /Status o1 completed ", "status", []string{"o1", "completed"}},
		{"hello", "", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		name, args := parseCommand(tt.line)
		if name != tt.name {
			t.Errorf("parseCommand(%q) name = %q, want %q", tt.line, name, tt.name)
		}
		if tt.args != nil {
			assert.Equal(t, tt.args, args, tt.line)
		}
	}
}

func TestPromptString(t *testing.T) {
	assert.Equal(t, "[logged-out]> ", promptString(console.LoggedOut, resource.KindContacts, verify.Absent))
	assert.Equal(t, "[logged-out*]> ", promptString(console.LoggedOut, resource.KindContacts, verify.Valid))
	assert.Equal(t, "[orders]> ", promptString(console.LoggedIn, resource.KindOrders, verify.Expired))
}

func TestMatchID(t *testing.T) {
	ids := []string{"3f2a-1", "3f2b-2", "77"}

	got, err := matchID(ids, "3f2a")
	require.NoError(t, err)
	assert.Equal(t, "3f2a-1", got)

	got, err = matchID(ids, "77")
	require.NoError(t, err)
	assert.Equal(t, "77", got)

	_, err = matchID(ids, "3f2")
	assert.ErrorContains(t, err, "ambiguous")

	got, err = matchID(ids, "zz")
	require.NoError(t, err)
	assert.Equal(t, "zz", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "纪念品纪...", truncate("纪念品纪念品纪念品", 7))
}

func TestParsePriceAndYes(t *testing.T) {
	p, err := parsePrice(" $12.50 ")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, p, 1e-9)

	_, err = parsePrice("cheap")
	assert.Error(t, err)

	assert.True(t, parseYes("", true))
	assert.False(t, parseYes("n", true))
	assert.True(t, parseYes("YES", false))
}

func TestRenderMerchandise(t *testing.T) {
	tr := i18n.New("en")
	items := []resource.MerchandiseItem{
		{ID: "s1", Name: "Pin", Category: "Badges", Price: 3, InStock: true},
		{ID: "s2", Name: "Mug", Category: "Home", Price: 12.5},
	}

	var buf bytes.Buffer
	renderMerchandise(&buf, tr, items, func(id string) bool { return id == "s2" })
	out := buf.String()

	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "$3.00")
	assert.Contains(t, out, "in stock")
	assert.Contains(t, out, "out of stock")
	assert.Contains(t, out, "(in progress)")
	assert.Equal(t, 1, strings.Count(out, "(in progress)"))
}

func TestRenderContactsGroupsByRole(t *testing.T) {
	tr := i18n.New("en")
	contacts := []resource.ContactEntry{
		{ID: "1", Name: "Mr. Wang", Role: "teacher"},
		{ID: "2", Name: "Amy", Role: "student", Email: "amy@example.com"},
		{ID: "3", Name: "Li", Role: "teacher"},
	}

	var buf bytes.Buffer
	renderContacts(&buf, tr, contacts, nil)
	out := buf.String()

	teacher := strings.Index(out, "[teacher]")
	student := strings.Index(out, "[student]")
	require.True(t, teacher >= 0 && student >= 0)
	assert.Less(t, teacher, student)
	assert.Less(t, strings.Index(out, "Li"), student)
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderOrders(&buf, i18n.New("zh-TW"), nil, nil)
	assert.Equal(t, "暫無資料。\n", buf.String())
}

func TestOrderSummary(t *testing.T) {
	lines := []resource.OrderLine{{Name: "Mug", Quantity: 2}, {Name: "Pin", Quantity: 1}}
	assert.Equal(t, "Mug x2, Pin x1", orderSummary(lines))
}

func TestREPL_ScriptedSession(t *testing.T) {
	ft := dispatchtest.New()
	ft.SetTable("contacts", `[{"id": 1, "name": "Mr. Wang", "role": "teacher"}]`)
	ft.SetTable("memories", `[]`)
	ft.SetTable("souvenirs", `[{"id": "s1", "name": "Pin", "category": "Badges", "price": 3, "in_stock": true}]`)
	ft.SetTable("orders", `[]`)
	ft.Respond(dispatch.ActionUpdateStock, `{"id": "s1", "name": "Pin", "category": "Badges", "price": 3, "in_stock": false}`)

	toasts := notify.New(notify.WithDuration(time.Minute))
	ctrl := console.New(ft, verify.NewGate(), toasts, i18n.New("en"))

	script := strings.Join([]string{
		"/login",
		"/verify tok-1",
		"/login",
		"pw",
		"/tab merchandise",
		"/verify tok-2",
		"/stock s1",
		"/quit",
	}, "\n") + "\n"

	var buf bytes.Buffer
	out := prompt.NewPrinter(&buf)
	r := &repl{ctrl: ctrl, in: prompt.NewReader(strings.NewReader(script), out), out: out}
	toasts.Subscribe(r.showToast)

	require.NoError(t, r.loop(context.Background()))
	output := buf.String()

	assert.Contains(t, output, "Complete the human verification first.")
	assert.Contains(t, output, "✓ Logged in")
	assert.Contains(t, output, "Mr. Wang")
	assert.Contains(t, output, "Manage Souvenirs")
	assert.Contains(t, output, "✓ Marked out of stock")

	assert.Equal(t, 1, ft.CallCount(dispatch.ActionLogin))
	assert.Equal(t, 1, ft.CallCount(dispatch.ActionUpdateStock))
	item, ok := findItem(ctrl.Merchandise(), "s1")
	require.True(t, ok)
	assert.False(t, item.InStock)
}

func TestREPL_ReportsSilentOutcomes(t *testing.T) {
	var buf bytes.Buffer
	out := prompt.NewPrinter(&buf)
	ctrl := console.New(dispatchtest.New(), verify.NewGate(), notify.New(), i18n.New("en"))
	r := &repl{ctrl: ctrl, out: out}

	r.report(console.ErrInFlight)
	r.report(verify.ErrVerificationRequired)
	r.report(console.ErrSessionEnded)
	r.report(&dispatch.Failure{Kind: dispatch.Rejected, Message: "nope"})

	output := buf.String()
	assert.Contains(t, output, "(in progress)")
	assert.Contains(t, output, "Complete the human verification first.")
	assert.NotContains(t, output, "nope")
}

func findItem[T resource.Item](items []T, id string) (T, bool) {
	for _, item := range items {
		if item.ItemID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
