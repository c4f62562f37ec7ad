// ABOUTME: Entry point for keepsake-authority, the reference remote authority
// ABOUTME: Subcommands serve, set-password, anon-key and health

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/2389/keepsake/internal/authority"
	"github.com/2389/keepsake/internal/config"
	"github.com/2389/keepsake/internal/logging"
	"github.com/2389/keepsake/internal/store"
	"github.com/2389/keepsake/internal/verify"
)

// Version is set at build time.
var version = "dev"

const banner = `
 _                               _
| | _____  ___ _ __  ___  __ _| | _____
| |/ / _ \/ _ \ '_ \/ __|/ _' | |/ / _ \
|   <  __/  __/ |_) \__ \ (_| |   <  __/
|_|\_\___|\___| .__/|___/\__,_|_|\_\___|
              |_|          authority
`

func usage() {
	fmt.Println("Usage: keepsake-authority <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve          Start the authority server")
	fmt.Println("  set-password   Set the operator password")
	fmt.Println("  anon-key       Print a public anon key for clients")
	fmt.Println("  health         Check server health")
	fmt.Println()
	fmt.Println("Every command accepts --config PATH (default: $KEEPSAKE_AUTHORITY_CONFIG,")
	fmt.Println("./authority.yaml, then $XDG_CONFIG_HOME/keepsake/authority.yaml).")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "set-password":
		err = runSetPassword(ctx, args)
	case "anon-key":
		err = runAnonKey(args)
	case "health":
		err = runHealth(ctx, args)
	case "-h", "--help", "help":
		usage()
	case "--version", "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses the shared --config flag plus any extra flags the
// command registered on fs.
func loadConfig(fs *pflag.FlagSet, args []string) (*config.AuthorityConfig, string, error) {
	configPath := fs.String("config", "", "path to authority.yaml")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	path := *configPath
	if path == "" {
		path = config.ResolveAuthorityPath()
	}
	cfg, err := config.LoadAuthority(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	cfg, configPath, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Driver)
	fmt.Println()

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if _, err := st.GetSetting(ctx, store.SettingAdminPassword); errors.Is(err, store.ErrNotFound) {
		color.New(color.FgYellow).Println("    ! operator password not set, run: keepsake-authority set-password")
		fmt.Println()
	}

	srv, err := authority.New(authority.Config{
		Store:          st,
		Keys:           authority.NewKeyIssuer([]byte(cfg.Auth.JWTSecret)),
		Verifier:       verify.NewSiteVerifier(cfg.Verification.SecretKey, cfg.Verification.SiteVerifyURL, cfg.Verification.Timeout),
		Addr:           cfg.Server.HTTPAddr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting keepsake-authority", "config", configPath, "http_addr", cfg.Server.HTTPAddr)
	return srv.Run(ctx)
}

func runSetPassword(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("set-password", pflag.ContinueOnError)
	fromStdin := fs.Bool("stdin", false, "read the password from the first line of stdin")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	var password string
	if *fromStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	} else {
		password, err = promptNewPassword()
		if err != nil {
			return err
		}
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := authority.SetPassword(ctx, st, password); err != nil {
		return err
	}
	color.New(color.FgGreen).Println("Operator password updated.")
	return nil
}

func promptNewPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --stdin")
	}

	fmt.Print("New password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func runAnonKey(args []string) error {
	fs := pflag.NewFlagSet("anon-key", pflag.ContinueOnError)
	ttl := fs.Duration("expires-in", 0, "key lifetime (0 issues a key without expiry)")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	key, err := authority.NewKeyIssuer([]byte(cfg.Auth.JWTSecret)).Issue(authority.RoleAnon, *ttl)
	if err != nil {
		return fmt.Errorf("issuing key: %w", err)
	}
	fmt.Println(key)
	return nil
}

func runHealth(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("health", pflag.ContinueOnError)
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://%s/healthz", dialAddr(cfg.Server.HTTPAddr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// dialAddr turns a listen address such as ":8080" or "0.0.0.0:8080" into
// one a client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
