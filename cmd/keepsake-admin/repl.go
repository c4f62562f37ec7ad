// ABOUTME: Read-eval-print loop driving the console controller
// ABOUTME: Slash commands for verification, login, tabs, listing and mutations

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/keepsake/internal/console"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/prompt"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

var errQuit = errors.New("quit")

type repl struct {
	ctrl    *console.Controller
	in      *prompt.Reader
	out     *prompt.Printer
	siteKey string

	// mutations run in the background so a second activation can reach
	// the controller while the first is still in flight
	wg sync.WaitGroup
}

func (r *repl) loop(ctx context.Context) error {
	defer r.wg.Wait()

	for {
		state, tab := r.ctrl.State()
		line, err := r.in.Line(ctx, promptString(state, tab, r.ctrl.Gate().State()))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		name, args := parseCommand(line)
		if name == "" {
			continue
		}
		if err := r.exec(ctx, name, args); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			r.out.Printf("%s %v\n", color.RedString("[error]"), err)
		}
	}
}

// parseCommand splits "/cmd a b" into its lowercased name and arguments.
// Input without a leading slash yields no command.
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/")), fields[1:]
}

func promptString(state console.State, tab resource.Kind, gate verify.State) string {
	mark := ""
	if gate == verify.Valid {
		mark = "*"
	}
	if state == console.LoggedIn {
		return fmt.Sprintf("[%s%s]> ", tab, mark)
	}
	return fmt.Sprintf("[%s%s]> ", state, mark)
}

func (r *repl) exec(ctx context.Context, name string, args []string) error {
	switch name {
	case "quit", "exit", "q":
		return errQuit
	case "help":
		r.out.Print(helpText)
		return nil
	case "verify":
		return r.verify(args)
	case "login":
		return r.login(ctx)
	case "logout":
		r.ctrl.Logout()
		r.out.Println(r.ctrl.Translator().T("admin.logout"))
		return nil
	case "state":
		r.printState()
		return nil
	case "dismiss":
		r.ctrl.Notifications().Dismiss()
		return nil
	case "tab":
		return r.selectTab(ctx, args)
	case "list":
		return r.list(args)
	case "refresh":
		return r.refresh(ctx)
	case "add":
		return r.add(ctx, args)
	case "delete":
		return r.delete(ctx, args)
	case "stock":
		return r.stock(ctx, args)
	case "status":
		return r.status(ctx, args)
	default:
		return fmt.Errorf("unknown command /%s, try /help", name)
	}
}

const helpText = `Commands:
  /verify               start human verification and show the site key
  /verify <token>       supply the token issued by the challenge
  /verify expire|error  report that the challenge expired or failed
  /login                log in with the operator password
  /logout               discard the session and all loaded data
  /state                show session, tab and verification state
  /tab <kind>           switch to contacts, memories, merchandise or orders
  /list [kind]          show the active or named collection
  /refresh              reload the active collection
  /add memory|contact|souvenir
  /delete <id>          delete an item from the active collection
  /stock <id>           toggle a souvenir's in-stock flag
  /status <id> <status> set an order to pending, completed or cancelled
  /dismiss              hide the current notification
  /quit                 exit

Every change needs a fresh verification. Item ids may be abbreviated to any
unique prefix.
`

func (r *repl) verify(args []string) error {
	gate := r.ctrl.Gate()
	if len(args) == 0 {
		gate.Begin()
		if r.siteKey != "" {
			r.out.Printf("Complete the challenge for site key %s, then run /verify <token>.\n", r.siteKey)
		} else {
			r.out.Println("Complete the challenge, then run /verify <token>.")
		}
		return nil
	}

	switch args[0] {
	case "expire":
		gate.OnExpire()
	case "error":
		gate.OnError()
	default:
		gate.OnSuccess(args[0])
	}
	r.out.Printf("verification: %s\n", gate.State())
	return nil
}

func (r *repl) login(ctx context.Context) error {
	if r.ctrl.Gate().State() != verify.Valid {
		r.warnVerification()
		return nil
	}

	password, err := r.in.Password(ctx, r.ctrl.Translator().T("admin.pass")+": ")
	if err != nil {
		return err
	}

	err = r.ctrl.Login(ctx, password)
	switch {
	case err == nil:
		return r.list(nil)
	case errors.Is(err, verify.ErrVerificationRequired):
		r.warnVerification()
	case errors.Is(err, dispatch.ErrMissingField), errors.Is(err, console.ErrLoginInProgress):
		return err
	}
	// rejected logins are announced through notifications
	return nil
}

func (r *repl) refresh(ctx context.Context) error {
	err := r.ctrl.RefreshTab(ctx, r.ctrl.Tab())
	if errors.Is(err, console.ErrNotLoggedIn) {
		return err
	}
	if err != nil {
		return nil
	}
	return r.list(nil)
}

func (r *repl) printState() {
	state, tab := r.ctrl.State()
	r.out.Printf("session:       %s\n", state)
	if state == console.LoggedIn {
		r.out.Printf("tab:           %s\n", tab)
	}
	r.out.Printf("verification:  %s\n", r.ctrl.Gate().State())
	if r.ctrl.NeedsVerification() {
		r.out.Println(color.YellowString("               %s", r.ctrl.Translator().T("admin.needVerification")))
	}
	if state != console.LoggedIn {
		return
	}
	counts := map[resource.Kind]int{
		resource.KindContacts:    len(r.ctrl.Contacts()),
		resource.KindMemories:    len(r.ctrl.Memories()),
		resource.KindMerchandise: len(r.ctrl.Merchandise()),
		resource.KindOrders:      len(r.ctrl.Orders()),
	}
	for _, kind := range resource.Kinds {
		if r.ctrl.Populated(kind) {
			r.out.Printf("  %-12s %d\n", kind, counts[kind])
		} else {
			r.out.Printf("  %-12s not loaded\n", kind)
		}
	}
}

func (r *repl) selectTab(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /tab <contacts|memories|merchandise|orders>")
	}
	kind, err := resource.ParseKind(args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.SelectTab(ctx, kind); err != nil {
		if errors.Is(err, console.ErrNotLoggedIn) {
			return err
		}
		// load failures are already announced
		return nil
	}
	return r.list(nil)
}

func (r *repl) list(args []string) error {
	kind := r.ctrl.Tab()
	if len(args) > 0 {
		k, err := resource.ParseKind(args[0])
		if err != nil {
			return err
		}
		kind = k
	}
	if state, _ := r.ctrl.State(); state != console.LoggedIn {
		return console.ErrNotLoggedIn
	}

	tr := r.ctrl.Translator()
	if !r.ctrl.Populated(kind) {
		r.out.Printf("%s is not loaded, use /refresh\n", kind)
		return nil
	}

	busy := func(id string) bool { return r.ctrl.IsBusy(console.ItemKey(kind, id)) }
	r.out.Do(func(w io.Writer) {
		color.New(color.Bold).Fprintln(w, tr.T("admin.tab."+string(kind)))
		switch kind {
		case resource.KindContacts:
			renderContacts(w, tr, r.ctrl.Contacts(), busy)
		case resource.KindMemories:
			renderMemories(w, tr, r.ctrl.Memories(), busy)
		case resource.KindMerchandise:
			renderMerchandise(w, tr, r.ctrl.Merchandise(), busy)
		case resource.KindOrders:
			renderOrders(w, tr, r.ctrl.Orders(), busy)
		}
		fmt.Fprintln(w)
	})
	return nil
}

func (r *repl) add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /add memory|contact|souvenir")
	}
	if state, _ := r.ctrl.State(); state != console.LoggedIn {
		return console.ErrNotLoggedIn
	}
	tr := r.ctrl.Translator()

	switch strings.ToLower(args[0]) {
	case "memory":
		r.out.Println(tr.T("admin.addMemory"))
		var draft dispatch.AddMemory
		var err error
		if draft.Title, err = r.field(ctx, "Title"); err != nil {
			return err
		}
		if draft.Author, err = r.field(ctx, "Author (blank for "+console.DefaultAuthor+")"); err != nil {
			return err
		}
		if draft.Content, err = r.in.Multiline(ctx, "Content (Markdown)"); err != nil {
			return err
		}
		r.background(ctx, func(ctx context.Context) error {
			_, err := r.ctrl.AddMemory(ctx, draft)
			return err
		})

	case "contact":
		r.out.Println(tr.T("admin.addContact"))
		var draft dispatch.AddContact
		var err error
		if draft.Name, err = r.field(ctx, "Name"); err != nil {
			return err
		}
		if draft.Role, err = r.field(ctx, "Role"); err != nil {
			return err
		}
		if draft.Email, err = r.field(ctx, "Email (optional)"); err != nil {
			return err
		}
		if draft.Social, err = r.field(ctx, "Social (optional)"); err != nil {
			return err
		}
		r.background(ctx, func(ctx context.Context) error {
			_, err := r.ctrl.AddContact(ctx, draft)
			return err
		})

	case "souvenir", "merchandise":
		r.out.Println(tr.T("admin.addSouvenir"))
		draft, err := r.souvenirDraft(ctx)
		if err != nil {
			return err
		}
		r.background(ctx, func(ctx context.Context) error {
			_, err := r.ctrl.AddMerchandise(ctx, draft)
			return err
		})

	default:
		return fmt.Errorf("cannot add %q, expected memory, contact or souvenir", args[0])
	}
	return nil
}

func (r *repl) souvenirDraft(ctx context.Context) (dispatch.AddSouvenir, error) {
	var draft dispatch.AddSouvenir
	var err error
	if draft.Name, err = r.field(ctx, "Name"); err != nil {
		return draft, err
	}
	if draft.Category, err = r.field(ctx, "Category"); err != nil {
		return draft, err
	}
	price, err := r.field(ctx, "Price")
	if err != nil {
		return draft, err
	}
	if draft.Price, err = parsePrice(price); err != nil {
		return draft, err
	}
	if draft.Description, err = r.field(ctx, "Description"); err != nil {
		return draft, err
	}
	if draft.ImageURL, err = r.field(ctx, "Image URL"); err != nil {
		return draft, err
	}
	stock, err := r.field(ctx, "In stock? [Y/n]")
	if err != nil {
		return draft, err
	}
	draft.InStock = parseYes(stock, true)
	return draft, nil
}

func (r *repl) field(ctx context.Context, label string) (string, error) {
	line, err := r.in.Line(ctx, "  "+label+": ")
	return strings.TrimSpace(line), err
}

func (r *repl) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /delete <id>")
	}
	kind := r.ctrl.Tab()
	id, err := matchID(r.cachedIDs(kind), args[0])
	if err != nil {
		return err
	}

	r.background(ctx, func(ctx context.Context) error {
		switch kind {
		case resource.KindContacts:
			return r.ctrl.DeleteContact(ctx, id)
		case resource.KindMemories:
			return r.ctrl.DeleteMemory(ctx, id)
		case resource.KindMerchandise:
			return r.ctrl.DeleteMerchandise(ctx, id)
		default:
			return r.ctrl.DeleteOrder(ctx, id)
		}
	})
	return nil
}

func (r *repl) stock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /stock <id>")
	}
	id, err := matchID(r.cachedIDs(resource.KindMerchandise), args[0])
	if err != nil {
		return err
	}
	r.background(ctx, func(ctx context.Context) error {
		_, err := r.ctrl.ToggleStock(ctx, id)
		return err
	})
	return nil
}

func (r *repl) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /status <id> <pending|completed|cancelled>")
	}
	status := resource.OrderStatus(strings.ToLower(args[1]))
	if !status.Valid() {
		return fmt.Errorf("unknown order status %q", args[1])
	}
	id, err := matchID(r.cachedIDs(resource.KindOrders), args[0])
	if err != nil {
		return err
	}
	r.background(ctx, func(ctx context.Context) error {
		_, err := r.ctrl.UpdateOrderStatus(ctx, id, status)
		return err
	})
	return nil
}

func (r *repl) cachedIDs(kind resource.Kind) []string {
	var ids []string
	switch kind {
	case resource.KindContacts:
		ids = itemIDs(r.ctrl.Contacts())
	case resource.KindMemories:
		ids = itemIDs(r.ctrl.Memories())
	case resource.KindMerchandise:
		ids = itemIDs(r.ctrl.Merchandise())
	case resource.KindOrders:
		ids = itemIDs(r.ctrl.Orders())
	}
	return ids
}

func itemIDs[T resource.Item](items []T) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ItemID()
	}
	return ids
}

// matchID resolves an abbreviated id against the cached ids. An exact match
// wins over prefixes; otherwise the prefix must be unique. An id that is not
// cached is passed through so the controller can decide.
func matchID(ids []string, prefix string) (string, error) {
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return prefix, nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(found))
	}
}

// background runs a mutation and reports outcomes that raise no notification.
func (r *repl) background(ctx context.Context, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.report(fn(ctx))
	}()
}

func (r *repl) report(err error) {
	switch {
	case err == nil, errors.Is(err, console.ErrSessionEnded):
	case errors.Is(err, verify.ErrVerificationRequired):
		r.warnVerification()
	case errors.Is(err, console.ErrInFlight):
		r.out.Println(color.HiBlackString("(%s)", r.ctrl.Translator().T("admin.busy")))
	case errors.Is(err, dispatch.ErrMissingField),
		errors.Is(err, console.ErrNotLoggedIn),
		errors.Is(err, console.ErrUnknownItem):
		r.out.Printf("%s %v\n", color.RedString("[error]"), err)
	default:
		if _, ok := dispatch.AsFailure(err); !ok {
			r.out.Printf("%s %v\n", color.RedString("[error]"), err)
		}
	}
}

func (r *repl) warnVerification() {
	r.out.Println(color.YellowString("%s", r.ctrl.Translator().T("admin.needVerification")) + " (/verify)")
}

func (r *repl) showToast(ev notify.Event) {
	if ev.Kind != notify.Shown {
		return
	}
	r.out.Println(toastLine(ev.Notification))
}

func toastLine(n notify.Notification) string {
	if n.Severity == notify.Error {
		return color.RedString("✗ %s", n.Message)
	}
	return color.GreenString("✓ %s", n.Message)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", s)
	}
	return p, nil
}

func parseYes(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	case "n", "no", "false", "0":
		return false
	default:
		return fallback
	}
}
