// ABOUTME: Entry point for keepsake-admin, the interactive operator console
// ABOUTME: Wires config, transport, verification gate and notifications into the REPL

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

	"github.com/2389/keepsake/internal/config"
	"github.com/2389/keepsake/internal/console"
	"github.com/2389/keepsake/internal/dispatch"
	"github.com/2389/keepsake/internal/i18n"
	"github.com/2389/keepsake/internal/logging"
	"github.com/2389/keepsake/internal/notify"
	"github.com/2389/keepsake/internal/prompt"
	"github.com/2389/keepsake/internal/verify"
)

// Version is set at build time.
var version = "dev"

const banner = `
 _                               _                   _           _
| | _____  ___ _ __  ___  __ _| | _____     __ _  __| |_ __ ___ (_)_ __
| |/ / _ \/ _ \ '_ \/ __|/ _' | |/ / _ \   / _' |/ _' | '_ ' _ \| | '_ \
|   <  __/  __/ |_) \__ \ (_| |   <  __/  | (_| | (_| | | | | | | | | | |
|_|\_\___|\___| .__/|___/\__,_|_|\_\___|   \__,_|\__,_|_| |_| |_|_|_| |_|
              |_|
`

func main() {
	fs := pflag.NewFlagSet("keepsake-admin", pflag.ContinueOnError)
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
	toasts := notify.New(notify.WithDuration(cfg.Console.NotificationDuration))
	gate := verify.NewGate(verify.WithLifetime(cfg.Verification.TokenLifetime))
	transport := dispatch.NewHTTPTransport(cfg.Authority.URL, cfg.Authority.AnonKey)

	ctrl := console.New(transport, gate, toasts, tr)

	out := prompt.NewPrinter(color.Output)
	r := &repl{
		ctrl:    ctrl,
		in:      prompt.NewReader(os.Stdin, out),
		out:     out,
		siteKey: cfg.Verification.SiteKey,
	}
	toasts.Subscribe(r.showToast)

	color.New(color.FgCyan).Fprint(color.Output, banner)
	out.Printf("    %s  %s\n", tr.T("admin.title"), color.HiBlackString("version %s", version))
	out.Printf("    authority: %s\n\n", cfg.Authority.URL)
	out.Println("Type /help for commands.")
	out.Println()

	return r.loop(ctx)
}
