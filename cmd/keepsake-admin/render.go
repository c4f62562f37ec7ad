// ABOUTME: Table rendering for the operator console's four collections
// ABOUTME: tabwriter tables with truncated columns and busy markers

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/resource"
)

const excerptLength = 60

// busyFunc reports whether a mutation on id is in flight.
type busyFunc func(id string) bool

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderContacts(w io.Writer, tr *i18n.Translator, contacts []resource.ContactEntry, busy busyFunc) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "  ID\tNAME\tEMAIL\tSOCIAL\t")
	fmt.Fprintln(tw, "  --\t----\t-----\t------\t")
	for _, group := range resource.GroupContactsByRole(contacts) {
		fmt.Fprintf(tw, "  [%s]\t\t\t\t\n", group.Role)
		for _, c := range group.Contacts {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				truncate(c.ItemID(), 12),
				truncate(c.Name, 24),
				orDash(c.Email),
				orDash(truncate(c.Social, 30)),
				busyMark(tr, busy, c.ItemID()),
			)
		}
	}
	tw.Flush()
}

func renderMemories(w io.Writer, tr *i18n.Translator, memories []resource.MemoryArticle, busy busyFunc) {
	if len(memories) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "  ID\tTITLE\tAUTHOR\tCREATED\tEXCERPT\t")
	fmt.Fprintln(tw, "  --\t-----\t------\t-------\t-------\t")
	for _, m := range memories {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(m.ItemID(), 12),
			truncate(m.Title, 30),
			orDash(m.Author),
			formatCreated(m.CreatedAt),
			resource.Excerpt(m.Content, excerptLength),
			busyMark(tr, busy, m.ItemID()),
		)
	}
	tw.Flush()
}

func renderMerchandise(w io.Writer, tr *i18n.Translator, items []resource.MerchandiseItem, busy busyFunc) {
	if len(items) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "  ID\tNAME\tCATEGORY\tPRICE\tSTOCK\t")
	fmt.Fprintln(tw, "  --\t----\t--------\t-----\t-----\t")
	for _, s := range items {
		stock := tr.T("admin.inStock")
		if !s.InStock {
			stock = tr.T("admin.outOfStock")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(s.ItemID(), 12),
			truncate(s.Name, 30),
			truncate(s.Category, 16),
			formatPrice(s.Price),
			stock,
			busyMark(tr, busy, s.ItemID()),
		)
	}
	tw.Flush()
}

func renderOrders(w io.Writer, tr *i18n.Translator, orders []resource.Order, busy busyFunc) {
	if len(orders) == 0 {
		fmt.Fprintln(w, tr.T("admin.empty"))
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "  ID\tCUSTOMER\tCONTACT\tITEMS\tTOTAL\tSTATUS\tCREATED\t")
	fmt.Fprintln(tw, "  --\t--------\t-------\t-----\t-----\t------\t-------\t")
	for _, o := range orders {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(o.ItemID(), 12),
			truncate(o.CustomerName, 20),
			truncate(o.CustomerContact, 24),
			truncate(orderSummary(o.Items), 40),
			formatPrice(o.TotalAmount),
			o.EffectiveStatus(),
			formatCreated(o.CreatedAt),
			busyMark(tr, busy, o.ItemID()),
		)
	}
	tw.Flush()
}

// orderSummary renders order lines as "Mug x2, Shirt x1".
func orderSummary(lines []resource.OrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d", l.Name, l.Quantity))
	}
	return strings.Join(parts, ", ")
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02 15:04")
}

func busyMark(tr *i18n.Translator, busy busyFunc, id string) string {
	if busy != nil && busy(id) {
		return "(" + tr.T("admin.busy") + ")"
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
