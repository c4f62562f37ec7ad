// ABOUTME: Tests for the HTTP transport against an httptest authority
// ABOUTME: Checks headers, paths, query strings and error extraction

package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/functions/v1/admin-action", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"action": "login"}`, string(body))

		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/", "anon")
	resp, err := tr.Invoke(context.Background(), FunctionAdminAction, json.RawMessage(`{"action": "login"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true}`, string(resp))
}

func TestHTTPTransport_Select(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, "anon")
	_, err := tr.Select(context.Background(), "memories", true)
	require.NoError(t, err)
	_, err = tr.Select(context.Background(), "contacts", false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/rest/v1/memories?order=created_at.desc&select=%2A",
		"/rest/v1/contacts?select=%2A",
	}, queries)
}

func TestHTTPTransport_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"function error", http.StatusUnauthorized, `{"error": "invalid password"}`, "invalid password"},
		{"table error", http.StatusNotFound, `{"message": "relation does not exist"}`, "relation does not exist"},
		{"plain text", http.StatusBadGateway, `bad gateway`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr := NewHTTPTransport(srv.URL, "anon")
			_, err := tr.Invoke(context.Background(), FunctionAdminAction, json.RawMessage(`{}`))

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(url, "anon")
	_, err := tr.Invoke(context.Background(), FunctionAdminAction, json.RawMessage(`{}`))
	require.Error(t, err)

	f := classify("login", err)
	assert.Equal(t, Unreachable, f.Kind)
	assert.ErrorIs(t, f, err)
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Action: "delete-order", Kind: Rejected, Status: 401, Message: "nope"}
	assert.Equal(t, "delete-order rejected (status 401): nope", f.Error())

	f = &Failure{Action: "login", Kind: Unreachable, Message: "authority unreachable"}
	assert.Equal(t, "login unreachable: authority unreachable", f.Error())
}
