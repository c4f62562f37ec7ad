// ABOUTME: Entry point for keepsake-shop, the public storefront and memories browser
// ABOUTME: Browses merchandise, places verified pre-orders and signs the guestbook

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/keepsake/internal/cache"
	"github.com/2389/keepsake/internal/cart"
	"github.com/2389/keepsake/internal/config"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/logging"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/prompt"
	"github.com/2389/keepsake/internal/resource"
	"github.com/2389/keepsake/internal/verify"
)

// Version is set at build time.
var version = "dev"

func main() {
	fs := pflag.NewFlagSet("keepsake-shop", pflag.ContinueOnError)
	var overrides config.ConsoleOverrides
	overrides.Register(fs)
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, path, err := overrides.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading %s: %v\n", path, err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, cfg *config.ConsoleConfig) error {
	tr := i18n.New(cfg.Console.Language, os.Getenv("LANG"))
	out := prompt.NewPrinter(color.Output)

	s := &shop{
		transport: dispatch.NewHTTPTransport(cfg.Authority.URL, cfg.Authority.AnonKey),
		gate:      verify.NewGate(verify.WithLifetime(cfg.Verification.TokenLifetime)),
		toasts:    notify.New(notify.WithDuration(cfg.Console.NotificationDuration)),
		tr:        tr,
		cart:      cart.New(),
		catalog:   cache.New[resource.MerchandiseItem](cache.OrderingFor(resource.KindMerchandise)),
		memories:  cache.New[resource.MemoryArticle](cache.OrderingFor(resource.KindMemories)),
		guestbook: cache.New[resource.GuestbookMessage](cache.OrderingFor(resource.KindMessages)),
		category:  cart.AllCategories,
		in:        prompt.NewReader(os.Stdin, out),
		out:       out,
		siteKey:   cfg.Verification.SiteKey,
	}
	s.toasts.Subscribe(s.showToast)

	color.New(color.FgCyan, color.Bold).Fprintf(color.Output, "\n  %s\n", tr.T("shop.title"))
	out.Printf("  %s\n\n", color.HiBlackString("%s · version %s", cfg.Authority.URL, version))
	out.Println("Type /help for commands.")
	out.Println()

	if err := s.loadCatalog(ctx); err == nil {
		s.printCatalog()
	}
	return s.loop(ctx)
}
