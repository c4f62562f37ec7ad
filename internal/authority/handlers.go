// ABOUTME: Request handlers for bulk reads, operator actions, checkout and the guestbook
// ABOUTME: Every function call redeems its verification token before touching the store

package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/store"
	"github.com/2389/keepsake/internal/verify"
)

// errBadRequest marks handler errors answered with 400.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// handleSelect handles GET /rest/v1/{table}.
// Supports ?order=created_at.desc and ?order=created_at.asc.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var newestFirst bool
	switch order := r.URL.Query().Get("order"); order {
	case "", "created_at.asc":
	case "created_at.desc":
		newestFirst = true
	default:
		s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("unsupported order %q", order))
		return
	}

	ctx := r.Context()
	var rows any
	var err error
	switch table {
	case "contacts":
		rows, err = s.store.ListContacts(ctx, newestFirst)
	case "memories":
		rows, err = s.store.ListMemories(ctx, newestFirst)
	case "messages":
		rows, err = s.store.ListMessages(ctx, newestFirst)
	case "souvenirs":
		rows, err = s.store.ListSouvenirs(ctx, newestFirst)
	case "orders":
		rows, err = s.store.ListOrders(ctx, newestFirst)
	default:
		s.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown table %q", table))
		return
	}
	if err != nil {
		s.logger.Error("select failed", "table", table, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to read "+table)
		return
	}
	s.sendJSON(w, http.StatusOK, rows)
}

// adminRequest is the admin-action request body.
type adminRequest struct {
	Action         string          `json:"action"`
	Payload        json.RawMessage `json:"payload"`
	Password       string          `json:"password"`
	TurnstileToken string          `json:"turnstileToken"`
}

type idPayload struct {
	ID string `json:"id"`
}

type ack struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// handleAdminAction handles POST /functions/v1/admin-action.
//
// Order of checks:
//  1. Decode the envelope
//  2. Redeem the verification token (403 on failure)
//  3. Check the operator password (401 on failure)
//  4. Perform the action
func (s *Server) handleAdminAction(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Action == "" {
		s.sendJSONError(w, http.StatusBadRequest, "missing action")
		return
	}

	if !s.redeem(w, r, req.TurnstileToken) {
		return
	}

	if err := CheckPassword(r.Context(), s.store, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			s.logger.Warn("wrong operator password", "action", req.Action, "remote", remoteIP(r))
			s.sendJSONError(w, http.StatusUnauthorized, "Invalid password")
		case errors.Is(err, ErrPasswordUnset):
			s.sendJSONError(w, http.StatusInternalServerError, err.Error())
		default:
			s.logger.Error("reading password hash", "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "failed to check password")
		}
		return
	}

	result, err := s.perform(r.Context(), req.Action, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, errBadRequest), errors.Is(err, dispatch.ErrMissingField):
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			s.sendJSONError(w, http.StatusNotFound, "item not found")
		default:
			s.logger.Error("admin action failed", "action", req.Action, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "failed to "+req.Action)
		}
		return
	}

	s.logger.Info("admin action", "action", req.Action)
	s.sendJSON(w, http.StatusOK, result)
}

// perform runs one operator action. The password has already been checked.
func (s *Server) perform(ctx context.Context, action string, payload json.RawMessage) (any, error) {
	switch action {
	case dispatch.ActionLogin:
		return ack{Success: true}, nil

	case dispatch.ActionAddMemory:
		var p dispatch.AddMemory
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		m := resource.MemoryArticle{Title: strings.TrimSpace(p.Title), Content: p.Content, Author: strings.TrimSpace(p.Author)}
		if err := s.store.CreateMemory(ctx, &m); err != nil {
			return nil, err
		}
		return m, nil

	case dispatch.ActionAddContact:
		var p dispatch.AddContact
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		c := resource.ContactEntry{
			Name:   strings.TrimSpace(p.Name),
			Role:   strings.TrimSpace(p.Role),
			Email:  strings.TrimSpace(p.Email),
			Social: strings.TrimSpace(p.Social),
		}
		if err := s.store.CreateContact(ctx, &c); err != nil {
			return nil, err
		}
		return c, nil

	case dispatch.ActionAddSouvenir:
		var p dispatch.AddSouvenir
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		it := resource.MerchandiseItem{
			Name:        strings.TrimSpace(p.Name),
			Category:    strings.TrimSpace(p.Category),
			Price:       p.Price,
			Description: p.Description,
			ImageURL:    strings.TrimSpace(p.ImageURL),
			InStock:     p.InStock,
		}
		if err := s.store.CreateSouvenir(ctx, &it); err != nil {
			return nil, err
		}
		return it, nil

	case dispatch.ActionUpdateStock:
		var p dispatch.UpdateStock
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return s.store.SetSouvenirStock(ctx, p.ID, p.InStock)

	case dispatch.ActionUpdateOrderStatus:
		var p dispatch.UpdateOrderStatus
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return s.store.SetOrderStatus(ctx, p.ID, p.Status)

	case dispatch.ActionDeleteMemory:
		return s.deleteByID(ctx, payload, s.store.DeleteMemory)
	case dispatch.ActionDeleteContact:
		return s.deleteByID(ctx, payload, s.store.DeleteContact)
	case dispatch.ActionDeleteSouvenir:
		return s.deleteByID(ctx, payload, s.store.DeleteSouvenir)
	case dispatch.ActionDeleteOrder:
		return s.deleteByID(ctx, payload, s.store.DeleteOrder)
	}
	return nil, badRequest("unknown action %q", action)
}

// deleteByID succeeds for rows that are already gone.
func (s *Server) deleteByID(ctx context.Context, payload json.RawMessage, del func(context.Context, string) error) (any, error) {
	var p idPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, fmt.Errorf("%w: id", dispatch.ErrMissingField)
	}
	if err := del(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return ack{Success: true, ID: p.ID}, nil
}

// checkoutRequest is the submit-order request body.
type checkoutRequest struct {
	dispatch.SubmitOrder
	TurnstileToken string `json:"turnstileToken"`
}

// handleSubmitOrder handles POST /functions/v1/submit-order.
// The total is recomputed from the lines; a mismatch is rejected.
func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.redeem(w, r, req.TurnstileToken) {
		return
	}

	if err := req.Validate(); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var total float64
	for _, line := range req.Items {
		if line.Price < 0 {
			s.sendJSONError(w, http.StatusBadRequest, "line price must not be negative")
			return
		}
		total += line.Price * float64(line.Quantity)
	}
	if math.Abs(total-req.TotalAmount) > 0.005 {
		s.sendJSONError(w, http.StatusBadRequest, "total_amount does not match items")
		return
	}

	order := resource.Order{
		CustomerName:    strings.TrimSpace(req.Name),
		CustomerContact: strings.TrimSpace(req.Contact),
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		Status:          resource.OrderPending,
	}
	if err := s.store.CreateOrder(r.Context(), &order); err != nil {
		s.logger.Error("creating order", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	s.logger.Info("order placed", "id", order.ID, "lines", len(order.Items))
	s.sendJSON(w, http.StatusOK, order)
}

// signatureRequest is the sign-guestbook request body.
type signatureRequest struct {
	dispatch.SignGuestbook
	TurnstileToken string `json:"turnstileToken"`
}

// handleSignGuestbook handles POST /functions/v1/sign-guestbook.
// It answers with the stored row so the caller can show it immediately.
func (s *Server) handleSignGuestbook(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.redeem(w, r, req.TurnstileToken) {
		return
	}

	if err := req.Validate(); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := resource.GuestbookMessage{
		Name:    strings.TrimSpace(req.Name),
		Content: strings.TrimSpace(req.Content),
	}
	if err := s.store.CreateMessage(r.Context(), &msg); err != nil {
		s.logger.Error("creating message", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to sign guestbook")
		return
	}

	s.logger.Info("guestbook signed", "id", msg.ID)
	s.sendJSON(w, http.StatusOK, msg)
}

// redeem verifies the Turnstile token and answers the request itself when
// verification fails. It reports whether the handler should continue.
func (s *Server) redeem(w http.ResponseWriter, r *http.Request, token string) bool {
	err := s.verifier.Verify(r.Context(), token, remoteIP(r))
	switch {
	case err == nil:
		return true
	case errors.Is(err, verify.ErrMissingToken):
		s.sendJSONError(w, http.StatusBadRequest, "missing verification token")
	case errors.Is(err, verify.ErrChallengeFailed):
		s.sendJSONError(w, http.StatusForbidden, "Verification failed")
	default:
		s.logger.Error("siteverify unavailable", "error", err)
		s.sendJSONError(w, http.StatusBadGateway, "verification service unavailable")
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return badRequest("missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return badRequest("invalid payload")
	}
	return nil
}
