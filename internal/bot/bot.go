package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alitto/pond"

	"github.com/zombor/fns-bill/internal/fns"
	"github.com/zombor/fns-bill/internal/metrics"
)

// Replies sent to users
const (
	StartReply     = "Type /help to get more info"
	HelpReply      = "Send an image with QR or query from QR as text to get bill. Basic Commands:\n\n/help - shows this message.\n/start - starts bot."
	PendingReply   = "Trying fetch bill..."
	DecodeFailed   = "Could not decode QR"
	ResolveFailed  = "Could not fetch bill"
	defaultWorkers = 4
)

// PhotoSize is one rendition of a photo message
type PhotoSize struct {
	FileID int32
	Width  int32
	Height int32
}

// Message is an inbound chat message. Photo is empty for text messages.
type Message struct {
	ChatID int64
	Text   string
	Photo  []PhotoSize
}

// Messenger is the chat transport
type Messenger interface {
	// Listen streams inbound messages until ctx is done
	Listen(ctx context.Context) (<-chan Message, error)
	SendText(chatID int64, text string) error
	SendHTML(chatID int64, html string) error
	// DownloadPhoto fetches a file and returns its local path
	DownloadPhoto(fileID int32) (string, error)
	// DeletePhoto removes a downloaded file from local storage
	DeletePhoto(fileID int32) error
}

// Resolver turns a query string into a bill
type Resolver interface {
	Resolve(ctx context.Context, query string) (*fns.Bill, error)
}

// QRDecoder extracts the query string from an image on disk
type QRDecoder interface {
	DecodeFile(path string) (string, error)
}

// Bot answers chat messages with resolved bills
type Bot struct {
	messenger Messenger
	resolver  Resolver
	decoder   QRDecoder
	workers   int
}

// New creates a Bot. workers bounds the number of messages handled at once.
func New(messenger Messenger, resolver Resolver, decoder QRDecoder, workers int) *Bot {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Bot{
		messenger: messenger,
		resolver:  resolver,
		decoder:   decoder,
		workers:   workers,
	}
}

// Run handles messages on a worker pool until ctx is cancelled or the
// transport closes, then waits for in-flight messages.
func (b *Bot) Run(ctx context.Context) error {
	messages, err := b.messenger.Listen(ctx)
	if err != nil {
		return fmt.Errorf("listening for messages: %w", err)
	}

	pool := pond.New(b.workers, b.workers*16, pond.PanicHandler(func(p interface{}) {
		slog.Error("Message handler panicked", "panic", p)
	}))
	defer pool.StopAndWait()

	slog.Info("Starting bot", "workers", b.workers)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			pool.Submit(func() {
				if err := b.Handle(ctx, msg); err != nil {
					slog.Error("Failed to handle message", "chat_id", msg.ChatID, "error", err)
				}
			})
		}
	}
}

// Handle answers a single message. Errors are transport failures only;
// resolution failures are reported to the chat.
func (b *Bot) Handle(ctx context.Context, msg Message) error {
	switch {
	case isCommand(msg.Text, "start"):
		metrics.BotUpdates.WithLabelValues("command").Inc()
		return b.messenger.SendText(msg.ChatID, StartReply)
	case isCommand(msg.Text, "help"):
		metrics.BotUpdates.WithLabelValues("command").Inc()
		return b.messenger.SendText(msg.ChatID, HelpReply)
	case len(msg.Photo) > 0:
		metrics.BotUpdates.WithLabelValues("photo").Inc()
		return b.handlePhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		metrics.BotUpdates.WithLabelValues("text").Inc()
		return b.handleQuery(ctx, msg.ChatID, msg.Text)
	default:
		slog.Warn("Unhandled message", "chat_id", msg.ChatID)
		return nil
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg Message) error {
	if err := b.messenger.SendText(msg.ChatID, PendingReply); err != nil {
		return err
	}

	best := LargestPhoto(msg.Photo)
	path, err := b.messenger.DownloadPhoto(best.FileID)
	if err != nil {
		return fmt.Errorf("downloading photo: %w", err)
	}

	query, err := b.decoder.DecodeFile(path)
	if delErr := b.messenger.DeletePhoto(best.FileID); delErr != nil {
		slog.Warn("Failed to delete downloaded photo", "file_id", best.FileID, "error", delErr)
	}
	if err != nil {
		slog.Error("Could not read qr", "chat_id", msg.ChatID, "error", err)
		return b.messenger.SendText(msg.ChatID, DecodeFailed)
	}
	slog.Debug("Decoded QR content", "query", query)

	return b.fetchBill(ctx, msg.ChatID, query)
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, query string) error {
	if err := b.messenger.SendText(chatID, PendingReply); err != nil {
		return err
	}
	return b.fetchBill(ctx, chatID, strings.TrimSpace(query))
}

func (b *Bot) fetchBill(ctx context.Context, chatID int64, query string) error {
	bill, err := b.resolver.Resolve(ctx, query)
	if err != nil {
		slog.Error("Failed to fetch bill", "chat_id", chatID, "error", err)
		return b.messenger.SendText(chatID, ResolveFailed)
	}
	return b.messenger.SendHTML(chatID, RenderBill(bill))
}

// LargestPhoto picks the size with the most pixels, the first one on ties.
// photos must not be empty.
func LargestPhoto(photos []PhotoSize) PhotoSize {
	best := photos[0]
	for _, p := range photos[1:] {
		if int64(p.Width)*int64(p.Height) > int64(best.Width)*int64(best.Height) {
			best = p
		}
	}
	return best
}

// isCommand matches "/name" and "/name@botname", with or without arguments
func isCommand(text, name string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.EqualFold(cmd, "/"+name)
}
