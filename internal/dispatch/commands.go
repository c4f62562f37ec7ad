// ABOUTME: The closed set of commands the console can dispatch to the authority
// ABOUTME: Each command fixes its action tag, payload shape, presence checks and result type

package dispatch

import (
	"fmt"
	"math"
	"strings"

	"github.com/2389/keepsake/internal/resource"
)

// Action tags understood by the admin-action function.
const (
	ActionLogin             = "login"
	ActionAddMemory         = "add-memory"
	ActionDeleteMemory      = "delete-memory"
	ActionAddContact        = "add-contact"
	ActionDeleteContact     = "delete-contact"
	ActionAddSouvenir       = "add-souvenir"
	ActionDeleteSouvenir    = "delete-souvenir"
	ActionUpdateStock       = "update-stock"
	ActionDeleteOrder       = "delete-order"
	ActionUpdateOrderStatus = "update-order-status"
	ActionSubmitOrder       = "submit-order"
	ActionSignGuestbook     = "sign-guestbook"
)

// Credentials accompany a gated dispatch. Password is the operator secret and
// is not needed for storefront checkout; Token is the verification token
// consumed for this attempt.
type Credentials struct {
	Password string
	Token    string
}

// Command is a request whose successful result decodes into R. The set of
// implementations is closed: only this package can satisfy the interface.
type Command[R any] interface {
	Action() string
	// Validate performs presence checks only. The authority owns all
	// further validation.
	Validate() error
	request(creds Credentials) (function string, body any, err error)
	resultOf(R)
}

// yields binds a command to its result type. Embedding yields[R] is what
// makes a struct a Command[R] for exactly one R.
type yields[R any] struct{}

func (yields[R]) resultOf(R) {}

// Ack is the acknowledgement returned by login and deletes.
type Ack struct {
	Success bool        `json:"success"`
	ID      resource.ID `json:"id,omitempty"`
}

func (a Ack) check() error {
	if !a.Success && a.ID == "" {
		return fmt.Errorf("acknowledgement without success flag")
	}
	return nil
}

// adminEnvelope is the admin-action request body.
type adminEnvelope struct {
	Action         string `json:"action"`
	Payload        any    `json:"payload,omitempty"`
	Password       string `json:"password"`
	TurnstileToken string `json:"turnstileToken"`
}

func adminRequest(action string, payload any, creds Credentials) (string, any, error) {
	if creds.Password == "" {
		return "", nil, fmt.Errorf("%w: password", ErrMissingField)
	}
	if creds.Token == "" {
		return "", nil, fmt.Errorf("%w: verification token", ErrMissingField)
	}
	return FunctionAdminAction, adminEnvelope{
		Action:         action,
		Payload:        payload,
		Password:       creds.Password,
		TurnstileToken: creds.Token,
	}, nil
}

type idPayload struct {
	ID string `json:"id"`
}

// present returns ErrMissingField naming the first blank field. Arguments
// alternate field name and value.
func present(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, pairs[i])
		}
	}
	return nil
}

// Login asks the authority to confirm the operator password.
type Login struct{ yields[Ack] }

func (Login) Action() string  { return ActionLogin }
func (Login) Validate() error { return nil }
func (Login) request(c Credentials) (string, any, error) {
	return adminRequest(ActionLogin, nil, c)
}

// AddMemory creates a memory article.
type AddMemory struct {
	yields[resource.MemoryArticle]
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

func (AddMemory) Action() string { return ActionAddMemory }
func (m AddMemory) Validate() error {
	return present("title", m.Title, "content", m.Content)
}
func (m AddMemory) request(c Credentials) (string, any, error) {
	return adminRequest(ActionAddMemory, m, c)
}

// DeleteMemory removes a memory article.
type DeleteMemory struct {
	yields[Ack]
	ID string
}

func (DeleteMemory) Action() string    { return ActionDeleteMemory }
func (d DeleteMemory) Validate() error { return present("id", d.ID) }
func (d DeleteMemory) request(c Credentials) (string, any, error) {
	return adminRequest(ActionDeleteMemory, idPayload{ID: d.ID}, c)
}

// AddContact creates a directory entry.
type AddContact struct {
	yields[resource.ContactEntry]
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	Social string `json:"social,omitempty"`
}

func (AddContact) Action() string { return ActionAddContact }
func (a AddContact) Validate() error {
	return present("name", a.Name, "role", a.Role)
}
func (a AddContact) request(c Credentials) (string, any, error) {
	return adminRequest(ActionAddContact, a, c)
}

// DeleteContact removes a directory entry.
type DeleteContact struct {
	yields[Ack]
	ID string
}

func (DeleteContact) Action() string    { return ActionDeleteContact }
func (d DeleteContact) Validate() error { return present("id", d.ID) }
func (d DeleteContact) request(c Credentials) (string, any, error) {
	return adminRequest(ActionDeleteContact, idPayload{ID: d.ID}, c)
}

// AddSouvenir creates a merchandise item.
type AddSouvenir struct {
	yields[resource.MerchandiseItem]
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	InStock     bool    `json:"in_stock"`
}

func (AddSouvenir) Action() string { return ActionAddSouvenir }
func (a AddSouvenir) Validate() error {
	if err := present("name", a.Name, "category", a.Category, "description", a.Description, "image_url", a.ImageURL); err != nil {
		return err
	}
	if a.Price < 0 || math.IsNaN(a.Price) || math.IsInf(a.Price, 0) {
		return fmt.Errorf("%w: price", ErrMissingField)
	}
	return nil
}
func (a AddSouvenir) request(c Credentials) (string, any, error) {
	return adminRequest(ActionAddSouvenir, a, c)
}

// DeleteSouvenir removes a merchandise item.
type DeleteSouvenir struct {
	yields[Ack]
	ID string
}

func (DeleteSouvenir) Action() string    { return ActionDeleteSouvenir }
func (d DeleteSouvenir) Validate() error { return present("id", d.ID) }
func (d DeleteSouvenir) request(c Credentials) (string, any, error) {
	return adminRequest(ActionDeleteSouvenir, idPayload{ID: d.ID}, c)
}

// UpdateStock sets the in-stock flag of a merchandise item.
type UpdateStock struct {
	yields[resource.MerchandiseItem]
	ID      string `json:"id"`
	InStock bool   `json:"in_stock"`
}

func (UpdateStock) Action() string    { return ActionUpdateStock }
func (u UpdateStock) Validate() error { return present("id", u.ID) }
func (u UpdateStock) request(c Credentials) (string, any, error) {
	return adminRequest(ActionUpdateStock, u, c)
}

// DeleteOrder removes an order.
type DeleteOrder struct {
	yields[Ack]
	ID string
}

func (DeleteOrder) Action() string    { return ActionDeleteOrder }
func (d DeleteOrder) Validate() error { return present("id", d.ID) }
func (d DeleteOrder) request(c Credentials) (string, any, error) {
	return adminRequest(ActionDeleteOrder, idPayload{ID: d.ID}, c)
}

// UpdateOrderStatus moves an order to a new fulfilment status.
type UpdateOrderStatus struct {
	yields[resource.Order]
	ID     string               `json:"id"`
	Status resource.OrderStatus `json:"status"`
}

func (UpdateOrderStatus) Action() string { return ActionUpdateOrderStatus }
func (u UpdateOrderStatus) Validate() error {
	if err := present("id", u.ID); err != nil {
		return err
	}
	if !u.Status.Valid() {
		return fmt.Errorf("%w: status", ErrMissingField)
	}
	return nil
}
func (u UpdateOrderStatus) request(c Credentials) (string, any, error) {
	return adminRequest(ActionUpdateOrderStatus, u, c)
}

// SubmitOrder places a storefront pre-order. It needs a verification token
// but no operator password.
type SubmitOrder struct {
	yields[resource.Order]
	Name        string               `json:"name"`
	Contact     string               `json:"contact"`
	Items       []resource.OrderLine `json:"items"`
	TotalAmount float64              `json:"total_amount"`
}

func (SubmitOrder) Action() string { return ActionSubmitOrder }
func (s SubmitOrder) Validate() error {
	if err := present("name", s.Name, "contact", s.Contact); err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("%w: items", ErrMissingField)
	}
	for _, line := range s.Items {
		if line.Quantity < 1 {
			return fmt.Errorf("%w: quantity", ErrMissingField)
		}
	}
	if s.TotalAmount < 0 {
		return fmt.Errorf("%w: total_amount", ErrMissingField)
	}
	return nil
}

type checkoutBody struct {
	SubmitOrder
	TurnstileToken string `json:"turnstileToken"`
}

func (s SubmitOrder) request(c Credentials) (string, any, error) {
	if c.Token == "" {
		return "", nil, fmt.Errorf("%w: verification token", ErrMissingField)
	}
	return FunctionSubmitOrder, checkoutBody{SubmitOrder: s, TurnstileToken: c.Token}, nil
}

// SignGuestbook leaves a message in the public guestbook. Like checkout it
// needs a verification token and no password.
type SignGuestbook struct {
	yields[resource.GuestbookMessage]
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (SignGuestbook) Action() string { return ActionSignGuestbook }
func (g SignGuestbook) Validate() error {
	return present("name", g.Name, "content", g.Content)
}

type signatureBody struct {
	SignGuestbook
	TurnstileToken string `json:"turnstileToken"`
}

func (g SignGuestbook) request(c Credentials) (string, any, error) {
	if c.Token == "" {
		return "", nil, fmt.Errorf("%w: verification token", ErrMissingField)
	}
	return FunctionSignGuestbook, signatureBody{SignGuestbook: g, TurnstileToken: c.Token}, nil
}

// Compile-time membership of the closed set.
var (
	_ Command[Ack]                       = Login{}
	_ Command[resource.MemoryArticle]    = AddMemory{}
	_ Command[Ack]                       = DeleteMemory{}
	_ Command[resource.ContactEntry]     = AddContact{}
	_ Command[Ack]                       = DeleteContact{}
	_ Command[resource.MerchandiseItem]  = AddSouvenir{}
	_ Command[Ack]                       = DeleteSouvenir{}
	_ Command[resource.MerchandiseItem]  = UpdateStock{}
	_ Command[Ack]                       = DeleteOrder{}
	_ Command[resource.Order]            = UpdateOrderStatus{}
	_ Command[resource.Order]            = SubmitOrder{}
	_ Command[resource.GuestbookMessage] = SignGuestbook{}
)
