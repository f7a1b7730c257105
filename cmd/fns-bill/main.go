package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/fns-bill/internal/bot"
	"github.com/zombor/fns-bill/internal/fns"
	"github.com/zombor/fns-bill/internal/qr"
	"github.com/zombor/fns-bill/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before required settings are validated
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("fns-bill")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port (0 disables the HTTP front end)")
		storagePath = fs.StringLong("storage", "", "Scratch directory for uploaded images (default: a temp dir)")
		fnsHost     = fs.StringLong("fns-host", "", "FNS mobile API host")
		fnsINN      = fs.StringLong("fns-inn", "", "FNS account INN")
		fnsPassword = fs.StringLong("fns-password", "", "FNS account password")
		fnsSecret   = fs.StringLong("fns-client-secret", "", "FNS client secret")
		fnsDeviceID = fs.StringLong("fns-device-id", "", "Device-ID header sent to FNS")
		fnsDeviceOS = fs.StringLong("fns-device-os", "Linux", "Device-OS header sent to FNS")
		fnsTimeout  = fs.DurationLong("fns-timeout", fns.DefaultTimeout, "Timeout for each FNS API call")
		qrPolicy    = fs.StringLong("qr-policy", qr.PolicyLast, "QR selection policy when an image holds several codes: last, first or confidence")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		botToken    = fs.StringLong("bot-token", "", "Telegram bot token (optional, enables the bot)")
		botAPIID    = fs.IntLong("bot-api-id", 0, "Telegram API id")
		botAPIHash  = fs.StringLong("bot-api-hash", "", "Telegram API hash")
		botDir      = fs.StringLong("bot-dir", "./tdlib", "TDLib database and files directory")
		botWorkers  = fs.IntLong("bot-workers", 4, "Number of chat messages handled concurrently")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FNS_BILL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	settings := fns.Settings{
		Host:         *fnsHost,
		INN:          *fnsINN,
		Password:     *fnsPassword,
		ClientSecret: *fnsSecret,
		DeviceID:     *fnsDeviceID,
		DeviceOS:     *fnsDeviceOS,
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	policy, err := qr.ParsePolicy(*qrPolicy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *port == 0 && *botToken == "" {
		slog.Error("Nothing to run: set --port or --bot-token")
		os.Exit(1)
	}

	resolver := fns.NewResolverWithClient(settings, &http.Client{Timeout: *fnsTimeout})
	decoder := qr.NewDecoder(policy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if *port != 0 {
		slog.Info("Initializing storage...")
		store, err := receipt.NewLocalStorage(*storagePath)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}

		service := receipt.NewService(resolver, decoder, store)
		server := receipt.NewServer(service, receipt.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		})

		addr := fmt.Sprintf(":%d", *port)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(ctx, addr); err != nil {
				errCh <- fmt.Errorf("server: %w", err)
			}
		}()

		slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
		if *authUser != "" || *authPass != "" {
			slog.Info("Basic auth enabled", "user", *authUser)
		}
	}

	if *botToken != "" {
		if *botAPIID == 0 || *botAPIHash == "" {
			slog.Error("Telegram API id and hash are required with --bot-token")
			os.Exit(1)
		}

		slog.Info("Initializing Telegram bot...", "dir", *botDir)
		transport, err := bot.NewTDLib(bot.TDLibConfig{
			Token:   *botToken,
			APIID:   int32(*botAPIID),
			APIHash: *botAPIHash,
			Dir:     *botDir,
			Version: version,
		}, slog.Default())
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
			os.Exit(1)
		}
		defer transport.Close()

		b := bot.New(transport, resolver, decoder, *botWorkers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Run(ctx); err != nil {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Shutting down...")
	case err := <-errCh:
		slog.Error("Fatal error", "error", err)
		exitCode = 1
		stop()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(45 * time.Second):
		slog.Warn("Timed out waiting for shutdown")
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
