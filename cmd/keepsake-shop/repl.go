// ABOUTME: Storefront REPL: catalog browsing, cart editing, checkout, memories and guestbook
// ABOUTME: Checkout and signing need a fresh verification token and consume it every time

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/keepsake/internal/cache"
	"github.com/2389/keepsake/internal/cart"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/prompt"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

var errQuit = errors.New("quit")

const excerptLength = 80

type shop struct {
	transport dispatch.Transport
	gate      *verify.Gate
	toasts    *notify.Queue
	tr        *i18n.Translator
	cart      *cart.Cart
	catalog   *cache.Collection[resource.MerchandiseItem]
	memories  *cache.Collection[resource.MemoryArticle]
	guestbook *cache.Collection[resource.GuestbookMessage]

	// category is only touched by the REPL goroutine
	category string

	in      *prompt.Reader
	out     *prompt.Printer
	siteKey string
}

func (s *shop) loop(ctx context.Context) error {
	for {
		line, err := s.in.Line(ctx, s.promptString())
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
		if err := s.exec(ctx, name, args); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.out.Printf("%s %v\n", color.RedString("[error]"), err)
		}
	}
}

func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/")), fields[1:]
}

func (s *shop) promptString() string {
	if n := s.cart.Count(); n > 0 {
		return fmt.Sprintf("[%s %d]> ", s.tr.T("shop.cart"), n)
	}
	return "> "
}

func (s *shop) exec(ctx context.Context, name string, args []string) error {
	switch name {
	case "quit", "exit", "q":
		return errQuit
	case "help":
		s.out.Print(helpText)
	case "list", "browse":
		if len(args) > 0 {
			return s.filter(strings.Join(args, " "))
		}
		s.printCatalog()
	case "categories":
		s.out.Println(strings.Join(s.categoryNames(), " | "))
	case "category", "filter":
		return s.filter(strings.Join(args, " "))
	case "refresh":
		if err := s.loadCatalog(ctx); err != nil {
			return nil
		}
		s.printCatalog()
	case "add":
		return s.add(args)
	case "qty":
		return s.quantity(args)
	case "remove":
		return s.remove(args)
	case "cart":
		s.printCart()
	case "clear":
		s.cart.Clear()
		s.printCart()
	case "verify":
		s.verify(args)
	case "checkout":
		return s.checkout(ctx)
	case "memories":
		return s.listMemories(ctx)
	case "read":
		return s.readMemory(ctx, args)
	case "guestbook":
		return s.listGuestbook(ctx)
	case "sign":
		return s.sign(ctx)
	default:
		return fmt.Errorf("unknown command /%s, try /help", name)
	}
	return nil
}

const helpText = `Commands:
  /list [category]      show souvenirs, optionally in one category
  /categories           show the categories
  /refresh              reload the catalog
  /add <#|id>           put a souvenir in the cart
  /qty <#|id> <+n|-n>   change a cart line's quantity
  /remove <#|id>        drop a cart line
  /cart                 show the cart
  /clear                empty the cart
  /verify               start the security check and show the site key
  /verify <token>       supply the token issued by the check
  /checkout             place a pre-order for the cart
  /memories             list the class chronicles
  /read <#|id>          read a memory in full
  /guestbook            show the guestbook
  /sign                 leave a message in the guestbook
  /quit                 exit
`

func (s *shop) loadCatalog(ctx context.Context) error {
	items, err := dispatch.Fetch[resource.MerchandiseItem](ctx, s.transport, resource.KindMerchandise)
	if err != nil {
		s.toasts.Show(s.tr.T("toast.loadFailed"), notify.Error)
		return err
	}
	s.catalog.ReplaceAll(items)
	return nil
}

func (s *shop) categoryNames() []string {
	names := cart.Categories(s.catalog.Snapshot())
	names[0] = s.tr.T("shop.all")
	return names
}

func (s *shop) filter(category string) error {
	if category == "" || category == cart.AllCategories || category == s.tr.T("shop.all") {
		s.category = cart.AllCategories
		s.printCatalog()
		return nil
	}
	for _, name := range cart.Categories(s.catalog.Snapshot())[1:] {
		if strings.EqualFold(name, category) {
			s.category = name
			s.printCatalog()
			return nil
		}
	}
	return fmt.Errorf("no category %q, try /categories", category)
}

// visible returns the catalog under the current category filter.
func (s *shop) visible() []resource.MerchandiseItem {
	return cart.FilterByCategory(s.catalog.Snapshot(), s.category)
}

func (s *shop) printCatalog() {
	s.out.Do(func(w io.Writer) {
		renderCatalog(w, s.tr, s.visible())
	})
}

func renderCatalog(w io.Writer, tr *i18n.Translator, items []resource.MerchandiseItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tCATEGORY\tPRICE\t")
	fmt.Fprintln(tw, "  -\t----\t--------\t-----\t")
	for i, it := range items {
		price := fmt.Sprintf("$%.2f", it.Price)
		if !it.InStock {
			price += " (" + tr.T("shop.soldOut") + ")"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t\n", i+1, it.Name, it.Category, price)
		if it.Description != "" {
			fmt.Fprintf(tw, "  \t  %s\t\t\t\n", truncate(it.Description, 60))
		}
	}
	tw.Flush()
}

func renderCart(w io.Writer, tr *i18n.Translator, lines []cart.Line, total float64) {
	if len(lines) == 0 {
		fmt.Fprintln(w, tr.T("shop.cartEmpty"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tQTY\tSUBTOTAL\t")
	fmt.Fprintln(tw, "  -\t----\t---\t--------\t")
	for i, l := range lines {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t$%.2f\t\n", i+1, l.Item.Name, l.Quantity, l.Subtotal())
	}
	fmt.Fprintf(tw, "  \t%s\t\t$%.2f\t\n", tr.T("shop.total"), total)
	tw.Flush()
}

func (s *shop) printCart() {
	s.out.Do(func(w io.Writer) {
		color.New(color.Bold).Fprintln(w, s.tr.T("shop.cart"))
		renderCart(w, s.tr, s.cart.Lines(), s.cart.Total())
	})
}

func (s *shop) add(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /add <#|id>")
	}
	item, err := resolve(s.visible(), args[0])
	if err != nil {
		return err
	}
	if err := s.cart.Add(item); err != nil {
		if errors.Is(err, cart.ErrOutOfStock) {
			return fmt.Errorf("%s: %s", item.Name, s.tr.T("shop.soldOut"))
		}
		return err
	}
	s.printCart()
	return nil
}

func (s *shop) cartItems() []resource.MerchandiseItem {
	lines := s.cart.Lines()
	items := make([]resource.MerchandiseItem, len(lines))
	for i, l := range lines {
		items[i] = l.Item
	}
	return items
}

func (s *shop) quantity(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /qty <#|id> <+n|-n>")
	}
	item, err := resolve(s.cartItems(), args[0])
	if err != nil {
		return err
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("quantity change %q is not a number", args[1])
	}
	if !s.cart.UpdateQuantity(item.ItemID(), delta) {
		return errors.New("quantity must stay at least 1, use /remove to drop the line")
	}
	s.printCart()
	return nil
}

func (s *shop) remove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /remove <#|id>")
	}
	item, err := resolve(s.cartItems(), args[0])
	if err != nil {
		return err
	}
	s.cart.Remove(item.ItemID())
	s.printCart()
	return nil
}

func (s *shop) verify(args []string) {
	if len(args) == 0 {
		s.gate.Begin()
		if s.siteKey != "" {
			s.out.Printf("Complete the check for site key %s, then run /verify <token>.\n", s.siteKey)
		} else {
			s.out.Println("Complete the check, then run /verify <token>.")
		}
		return
	}
	switch args[0] {
	case "expire":
		s.gate.OnExpire()
	case "error":
		s.gate.OnError()
	default:
		s.gate.OnSuccess(args[0])
	}
	s.out.Printf("verification: %s\n", s.gate.State())
}

func (s *shop) checkout(ctx context.Context) error {
	if s.cart.Count() == 0 {
		s.out.Println(s.tr.T("shop.cartEmpty"))
		return nil
	}
	if s.gate.State() != verify.Valid {
		s.warnVerification()
		return nil
	}

	s.printCart()
	name, err := s.in.Line(ctx, "  Name: ")
	if err != nil {
		return err
	}
	contact, err := s.in.Line(ctx, "  Contact (phone or email): ")
	if err != nil {
		return err
	}

	order, err := s.cart.Checkout(ctx, s.transport, s.gate, name, contact)
	switch {
	case err == nil:
		s.toasts.Show(s.tr.T("shop.orderOK"), notify.Success)
		s.out.Printf("order %s, $%.2f\n", order.ID, order.TotalAmount)
	case errors.Is(err, verify.ErrVerificationRequired):
		s.warnVerification()
	case errors.Is(err, cart.ErrEmpty):
		s.out.Println(s.tr.T("shop.cartEmpty"))
	case errors.Is(err, dispatch.ErrMissingField), errors.Is(err, cart.ErrCheckoutInFlight):
		return err
	default:
		s.toasts.Show(s.tr.T("shop.orderFailed"), notify.Error)
	}
	return nil
}

func (s *shop) loadMemories(ctx context.Context) error {
	if s.memories.Populated() {
		return nil
	}
	items, err := dispatch.Fetch[resource.MemoryArticle](ctx, s.transport, resource.KindMemories)
	if err != nil {
		s.toasts.Show(s.tr.T("toast.loadFailed"), notify.Error)
		return err
	}
	s.memories.ReplaceAll(items)
	return nil
}

func (s *shop) listMemories(ctx context.Context) error {
	if err := s.loadMemories(ctx); err != nil {
		return nil
	}
	s.out.Do(func(w io.Writer) {
		color.New(color.Bold).Fprintln(w, s.tr.T("memories.title"))
		renderMemories(w, s.tr, s.memories.Snapshot())
	})
	return nil
}

func renderMemories(w io.Writer, tr *i18n.Translator, memories []resource.MemoryArticle) {
	if len(memories) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}
	for i, m := range memories {
		byline := m.Author
		if !m.CreatedAt.IsZero() {
			byline = strings.TrimSpace(byline + " · " + m.CreatedAt.Local().Format("2006-01-02"))
		}
		fmt.Fprintf(w, "  %d. %s", i+1, m.Title)
		if byline != "" {
			fmt.Fprintf(w, "  (%s)", byline)
		}
		fmt.Fprintln(w)
		if excerpt := resource.Excerpt(m.Content, excerptLength); excerpt != "" {
			fmt.Fprintf(w, "     %s\n", excerpt)
		}
	}
	fmt.Fprintf(w, "  /read <#> %s\n", tr.T("memories.readMore"))
}

func (s *shop) readMemory(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /read <#|id>")
	}
	if err := s.loadMemories(ctx); err != nil {
		return nil
	}
	m, err := resolve(s.memories.Snapshot(), args[0])
	if err != nil {
		return err
	}
	s.out.Do(func(w io.Writer) {
		color.New(color.Bold).Fprintln(w, m.Title)
		if m.Author != "" {
			fmt.Fprintln(w, color.HiBlackString("%s", m.Author))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, m.Content)
		fmt.Fprintln(w)
	})
	return nil
}

func (s *shop) loadGuestbook(ctx context.Context) error {
	if s.guestbook.Populated() {
		return nil
	}
	items, err := dispatch.Fetch[resource.GuestbookMessage](ctx, s.transport, resource.KindMessages)
	if err != nil {
		s.toasts.Show(s.tr.T("toast.loadFailed"), notify.Error)
		return err
	}
	s.guestbook.ReplaceAll(items)
	return nil
}

func (s *shop) listGuestbook(ctx context.Context) error {
	if err := s.loadGuestbook(ctx); err != nil {
		return nil
	}
	s.out.Do(func(w io.Writer) {
		renderGuestbook(w, s.tr, s.guestbook.Snapshot())
	})
	return nil
}

func renderGuestbook(w io.Writer, tr *i18n.Translator, messages []resource.GuestbookMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(w, tr.T("guestbook.empty"))
		return
	}
	for _, m := range messages {
		fmt.Fprintf(w, "  %s", color.New(color.Bold).Sprint(m.Name))
		if !m.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  %s", color.HiBlackString("%s", m.CreatedAt.Local().Format("2006-01-02 15:04")))
		}
		fmt.Fprintln(w)
		for _, line := range strings.Split(m.Content, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// sign posts a guestbook message. A blank name or message sends nothing.
// The new message is shown at the head of the guestbook without a reload.
func (s *shop) sign(ctx context.Context) error {
	if s.gate.State() != verify.Valid {
		s.warnVerification()
		return nil
	}

	s.out.Println(color.New(color.Bold).Sprint(s.tr.T("guestbook.title")))
	name, err := s.in.Line(ctx, "  "+s.tr.T("guestbook.inputName")+": ")
	if err != nil {
		return err
	}
	content, err := s.in.Multiline(ctx, "  "+s.tr.T("guestbook.inputMsg"))
	if err != nil {
		return err
	}
	cmd := dispatch.SignGuestbook{Name: strings.TrimSpace(name), Content: strings.TrimSpace(content)}
	if err := cmd.Validate(); err != nil {
		return err
	}

	token, err := s.gate.Consume()
	if err != nil {
		s.warnVerification()
		return nil
	}
	msg, err := dispatch.Dispatch(ctx, s.transport, dispatch.Command[resource.GuestbookMessage](cmd), dispatch.Credentials{Token: token})
	if err != nil {
		s.toasts.Show(s.tr.T("guestbook.postFailed"), notify.Error)
		return nil
	}

	s.guestbook.Upsert(msg)
	shown := []resource.GuestbookMessage{msg}
	if s.guestbook.Populated() {
		shown = s.guestbook.Snapshot()
	}
	s.out.Do(func(w io.Writer) {
		renderGuestbook(w, s.tr, shown)
	})
	return nil
}

// resolve finds an item by its 1-based position in items, its exact id or a
// unique id prefix.
func resolve[T resource.Item](items []T, ref string) (T, error) {
	var zero T
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], nil
	}

	var found []T
	for _, it := range items {
		if it.ItemID() == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ItemID(), ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("no item %q", ref)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%q matches %d items", ref, len(found))
	}
}

func (s *shop) warnVerification() {
	s.out.Println(color.YellowString("%s", s.tr.T("shop.needVerification")) + " (/verify)")
}

func (s *shop) showToast(ev notify.Event) {
	if ev.Kind != notify.Shown {
		return
	}
	if ev.Notification.Severity == notify.Error {
		s.out.Println(color.RedString("✗ %s", ev.Notification.Message))
		return
	}
	s.out.Println(color.GreenString("✓ %s", ev.Notification.Message))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
