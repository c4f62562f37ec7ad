// ABOUTME: HTTP tests for the authority endpoints
// ABOUTME: Drives the handlers with httptest and the client transport against MockStore

package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/store"
	"github.com/2389/keepsake/internal/verify"
)

const operatorPassword = "class-of-2012"

// stubVerifier accepts "ok-*" tokens, rejects "bad" and fails on "down".
type stubVerifier struct {
	mu       sync.Mutex
	redeemed []string
}

func (v *stubVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	v.mu.Lock()
	v.redeemed = append(v.redeemed, token)
	v.mu.Unlock()

	switch {
	case token == "":
		return verify.ErrMissingToken
	case token == "down":
		return errors.New("dial tcp: connection refused")
	case len(token) > 3 && token[:3] == "ok-":
		return nil
	default:
		return verify.ErrChallengeFailed
	}
}

func (v *stubVerifier) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.redeemed)
}

type testServer struct {
	*httptest.Server
	store    *store.MockStore
	verifier *stubVerifier
	key      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ms := store.NewMockStore()
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, ms.SetSetting(context.Background(), store.SettingAdminPassword, string(hash)))

	keys := NewKeyIssuer(testSecret)
	key, err := keys.Issue(RoleAnon, 0)
	require.NoError(t, err)

	v := &stubVerifier{}
	srv, err := New(Config{Store: ms, Keys: keys, Verifier: v, AllowedOrigins: []string{"https://class.example"}})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: ms, verifier: v, key: key}
}

func (ts *testServer) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("apikey", ts.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (ts *testServer) admin(t *testing.T, action string, payload any, password, token string) (*http.Response, map[string]any) {
	return ts.post(t, "/functions/v1/admin-action", map[string]any{
		"action":         action,
		"payload":        payload,
		"password":       password,
		"turnstileToken": token,
	})
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/rest/v1/contacts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/rest/v1/contacts", nil)
	req.Header.Set("Authorization", "Bearer not-a-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/rest/v1/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+ts.key)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSelect(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ts.store.CreateMemory(ctx, &resource.MemoryArticle{Title: "old", Content: "a", CreatedAt: base}))
	require.NoError(t, ts.store.CreateMemory(ctx, &resource.MemoryArticle{Title: "new", Content: "b", CreatedAt: base.Add(time.Hour)}))

	get := func(query string) (int, []map[string]any) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/rest/v1/"+query, nil)
		req.Header.Set("apikey", ts.key)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var rows []map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&rows)
		return resp.StatusCode, rows
	}

	status, rows := get("memories?select=*&order=created_at.desc")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0]["title"])

	status, rows = get("memories?select=*")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "old", rows[0]["title"])

	status, rows = get("contacts")
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	status, _ = get("guestbook")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get("memories?order=title.desc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSelect_StoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Err = errors.New("disk gone")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/rest/v1/orders", nil)
	req.Header.Set("apikey", ts.key)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAdminAction_Login(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.admin(t, dispatch.ActionLogin, nil, operatorPassword, "ok-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = ts.admin(t, dispatch.ActionLogin, nil, "guess", "ok-2")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid password", body["error"])

	assert.Equal(t, 2, ts.verifier.count())
}

func TestAdminAction_Verification(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		token  string
		status int
	}{
		{"", http.StatusBadRequest},
		{"bad", http.StatusForbidden},
		{"down", http.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, body := ts.admin(t, dispatch.ActionAddContact, map[string]any{"name": "Ana", "role": "Monitor"}, operatorPassword, tt.token)
		assert.Equal(t, tt.status, resp.StatusCode, "token %q", tt.token)
		assert.NotEmpty(t, body["error"])
	}

	contacts, err := ts.store.ListContacts(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestAdminAction_WrongPasswordStillRedeemsToken(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.admin(t, dispatch.ActionDeleteOrder, map[string]any{"id": "o1"}, "nope", "ok-1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, ts.verifier.count())
}

func TestAdminAction_CreateAndDelete(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.admin(t, dispatch.ActionAddContact, map[string]any{"name": " Ana ", "role": "Monitor", "email": "ana@example.com"}, operatorPassword, "ok-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Ana", body["name"])
	assert.NotEmpty(t, body["created_at"])

	resp, body = ts.admin(t, dispatch.ActionDeleteContact, map[string]any{"id": id}, operatorPassword, "ok-2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// already gone
	resp, body = ts.admin(t, dispatch.ActionDeleteContact, map[string]any{"id": id}, operatorPassword, "ok-3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestAdminAction_BadInput(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		action  string
		payload any
		status  int
	}{
		{"unknown action", "drop-tables", map[string]any{}, http.StatusBadRequest},
		{"missing payload", dispatch.ActionAddMemory, nil, http.StatusBadRequest},
		{"missing title", dispatch.ActionAddMemory, map[string]any{"content": "x"}, http.StatusBadRequest},
		{"negative price", dispatch.ActionAddSouvenir, map[string]any{"name": "Mug", "category": "Home", "price": -1, "description": "d", "image_url": "u"}, http.StatusBadRequest},
		{"bad status", dispatch.ActionUpdateOrderStatus, map[string]any{"id": "o1", "status": "shipped"}, http.StatusBadRequest},
		{"missing stock row", dispatch.ActionUpdateStock, map[string]any{"id": "nope", "in_stock": true}, http.StatusNotFound},
		{"missing order row", dispatch.ActionUpdateOrderStatus, map[string]any{"id": "nope", "status": "completed"}, http.StatusNotFound},
		{"delete without id", dispatch.ActionDeleteMemory, map[string]any{}, http.StatusBadRequest},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.admin(t, tt.action, tt.payload, operatorPassword, "ok-"+string(rune('a'+i)))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAdminAction_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/functions/v1/admin-action", bytes.NewReader([]byte("{not json")))
	req.Header.Set("apikey", ts.key)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, ts.verifier.count())
}

func TestSubmitOrder(t *testing.T) {
	ts := newTestServer(t)

	order := map[string]any{
		"name":           "Bo",
		"contact":        "bo@example.com",
		"items":          []map[string]any{{"id": "s1", "name": "Mug", "price": 20, "quantity": 2}},
		"total_amount":   40,
		"turnstileToken": "ok-1",
	}
	resp, body := ts.post(t, "/functions/v1/submit-order", order)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Bo", body["customer_name"])

	order["total_amount"] = 1
	order["turnstileToken"] = "ok-2"
	resp, body = ts.post(t, "/functions/v1/submit-order", order)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "total_amount")

	order["turnstileToken"] = "bad"
	resp, _ = ts.post(t, "/functions/v1/submit-order", order)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	orders, err := ts.store.ListOrders(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSignGuestbook(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/functions/v1/sign-guestbook", map[string]any{
		"name": "  Lin ", "content": "See you at the reunion", "turnstileToken": "ok-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lin", body["name"])
	assert.NotEmpty(t, body["id"])

	resp, _ = ts.post(t, "/functions/v1/sign-guestbook", map[string]any{
		"name": "Lin", "content": "again", "turnstileToken": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.post(t, "/functions/v1/sign-guestbook", map[string]any{
		"name": "Lin", "content": "again", "turnstileToken": "bad",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = ts.post(t, "/functions/v1/sign-guestbook", map[string]any{
		"name": "Lin", "content": "   ", "turnstileToken": "ok-2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "content")

	msgs, err := ts.store.ListMessages(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "See you at the reunion", msgs[0].Content)
	assert.Equal(t, 4, ts.verifier.count())
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/rest/v1/contacts", nil)
	req.Header.Set("Origin", "https://class.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://class.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestClientAgainstServer runs the console's transport and commands against
// the real handlers.
func TestClientAgainstServer(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	tr := dispatch.NewHTTPTransport(ts.URL, ts.key)
	creds := func(tok string) dispatch.Credentials {
		return dispatch.Credentials{Password: operatorPassword, Token: tok}
	}

	ackResp, err := dispatch.Dispatch(ctx, tr, dispatch.Command[dispatch.Ack](dispatch.Login{}), creds("ok-1"))
	require.NoError(t, err)
	assert.True(t, ackResp.Success)

	_, err = dispatch.Dispatch(ctx, tr, dispatch.Command[dispatch.Ack](dispatch.Login{}), dispatch.Credentials{Password: "wrong", Token: "ok-2"})
	f, ok := dispatch.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, dispatch.Rejected, f.Kind)
	assert.Equal(t, http.StatusUnauthorized, f.Status)
	assert.Equal(t, "Invalid password", f.Message)

	item, err := dispatch.Dispatch(ctx, tr, dispatch.Command[resource.MerchandiseItem](dispatch.AddSouvenir{
		Name: "Mug", Category: "Home", Price: 20, Description: "Class mug", ImageURL: "https://img/mug.png", InStock: true,
	}), creds("ok-3"))
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	updated, err := dispatch.Dispatch(ctx, tr, dispatch.Command[resource.MerchandiseItem](dispatch.UpdateStock{ID: string(item.ID), InStock: false}), creds("ok-4"))
	require.NoError(t, err)
	assert.False(t, updated.InStock)

	items, err := dispatch.Fetch[resource.MerchandiseItem](ctx, tr, resource.KindMerchandise)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].InStock)

	order, err := dispatch.Dispatch(ctx, tr, dispatch.Command[resource.Order](dispatch.SubmitOrder{
		Name: "Bo", Contact: "bo@example.com",
		Items:       []resource.OrderLine{{ID: item.ID, Name: "Mug", Price: 20, Quantity: 1}},
		TotalAmount: 20,
	}), dispatch.Credentials{Token: "ok-5"})
	require.NoError(t, err)
	assert.Equal(t, resource.OrderPending, order.Status)

	completed, err := dispatch.Dispatch(ctx, tr, dispatch.Command[resource.Order](dispatch.UpdateOrderStatus{ID: string(order.ID), Status: resource.OrderCompleted}), creds("ok-6"))
	require.NoError(t, err)
	assert.Equal(t, resource.OrderCompleted, completed.Status)

	deleted, err := dispatch.Dispatch(ctx, tr, dispatch.Command[dispatch.Ack](dispatch.DeleteOrder{ID: string(order.ID)}), creds("ok-7"))
	require.NoError(t, err)
	assert.True(t, deleted.Success)

	orders, err := dispatch.Fetch[resource.Order](ctx, tr, resource.KindOrders)
	require.NoError(t, err)
	assert.Empty(t, orders)

	signed, err := dispatch.Dispatch(ctx, tr, dispatch.Command[resource.GuestbookMessage](dispatch.SignGuestbook{
		Name: "Lin", Content: "Miss you all",
	}), dispatch.Credentials{Token: "ok-8"})
	require.NoError(t, err)
	assert.NotEmpty(t, signed.ID)

	messages, err := dispatch.Fetch[resource.GuestbookMessage](ctx, tr, resource.KindMessages)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, signed.ID, messages[0].ID)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Store: store.NewMockStore()})
	assert.Error(t, err)
	_, err = New(Config{Store: store.NewMockStore(), Keys: NewKeyIssuer(testSecret)})
	assert.Error(t, err)
}
