package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zelenin/go-tdlib/client"
)

// TDLibConfig holds the Telegram bot session settings
type TDLibConfig struct {
	Token   string
	APIID   int32
	APIHash string
	// Dir holds the TDLib database and downloaded files
	Dir     string
	Version string
}

// TDLib implements Messenger with a TDLib bot session
type TDLib struct {
	client *client.Client
	logger *slog.Logger
}

// NewTDLib authorizes the bot and returns a connected transport
func NewTDLib(cfg TDLibConfig, logger *slog.Logger) (*TDLib, error) {
	dbDir := filepath.Join(cfg.Dir, "database")
	filesDir := filepath.Join(cfg.Dir, "files")
	for _, dir := range []string{dbDir, filesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating tdlib dir: %w", err)
		}
	}

	if _, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{
		NewVerbosityLevel: 1,
	}); err != nil {
		logger.Error("TDLib SetLogVerbosityLevel", "error", err)
	}

	params := &client.SetTdlibParametersRequest{
		DatabaseDirectory:   dbDir,
		FilesDirectory:      filesDir,
		UseFileDatabase:     true,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  false,
		ApiId:               cfg.APIID,
		ApiHash:             cfg.APIHash,
		SystemLanguageCode:  "en",
		DeviceModel:         "fns-bill",
		SystemVersion:       "1.0",
		ApplicationVersion:  cfg.Version,
	}

	tdCli, err := client.NewClient(client.BotAuthorizer(params, cfg.Token))
	if err != nil {
		return nil, fmt.Errorf("starting tdlib client: %w", err)
	}

	me, err := tdCli.GetMe()
	if err != nil {
		tdCli.Close()
		return nil, fmt.Errorf("getting bot user: %w", err)
	}
	logger.Info("TDLib bot authorized", "self_id", me.Id)

	return &TDLib{
		client: tdCli,
		logger: logger,
	}, nil
}

func (t *TDLib) Close() {
	if _, err := t.client.Close(); err != nil {
		t.logger.Error("Closing tdlib client", "error", err)
	}
}

// Listen converts incoming TDLib messages into domain messages
func (t *TDLib) Listen(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	listener := t.client.GetListener()

	go func() {
		defer close(out)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-listener.Updates:
				if !ok {
					return
				}
				upd, isMsg := update.(*client.UpdateNewMessage)
				if !isMsg || upd.Message.IsOutgoing {
					continue
				}
				msg, ok := toMessage(upd.Message)
				if !ok {
					t.logger.Debug("Skipping message", "content_type", upd.Message.Content.MessageContentType())
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func toMessage(m *client.Message) (Message, bool) {
	switch content := m.Content.(type) {
	case *client.MessageText:
		if content.Text == nil {
			return Message{}, false
		}
		return Message{ChatID: m.ChatId, Text: content.Text.Text}, true
	case *client.MessagePhoto:
		if content.Photo == nil {
			return Message{}, false
		}
		msg := Message{ChatID: m.ChatId}
		for _, size := range content.Photo.Sizes {
			if size.Photo == nil {
				continue
			}
			msg.Photo = append(msg.Photo, PhotoSize{FileID: size.Photo.Id, Width: size.Width, Height: size.Height})
		}
		return msg, len(msg.Photo) > 0
	default:
		return Message{}, false
	}
}

func (t *TDLib) SendText(chatID int64, text string) error {
	return t.send(chatID, &client.FormattedText{Text: text})
}

func (t *TDLib) SendHTML(chatID int64, html string) error {
	formatted, err := client.ParseTextEntities(&client.ParseTextEntitiesRequest{
		Text:      html,
		ParseMode: &client.TextParseModeHTML{},
	})
	if err != nil {
		return fmt.Errorf("parsing html: %w", err)
	}
	return t.send(chatID, formatted)
}

func (t *TDLib) send(chatID int64, text *client.FormattedText) error {
	_, err := t.client.SendMessage(&client.SendMessageRequest{
		ChatId: chatID,
		InputMessageContent: &client.InputMessageText{
			Text:       text,
			ClearDraft: true,
		},
	})
	if err != nil {
		t.logger.Error("SendMessage failed", "chat_id", chatID, "error", err)
		return err
	}
	return nil
}

// DownloadPhoto downloads the file synchronously into the TDLib files dir
func (t *TDLib) DownloadPhoto(fileID int32) (string, error) {
	file, err := t.client.DownloadFile(&client.DownloadFileRequest{
		FileId:      fileID,
		Priority:    32,
		Synchronous: true,
	})
	if err != nil {
		return "", fmt.Errorf("DownloadFile failed: %w", err)
	}
	if file.Local == nil || !file.Local.IsDownloadingCompleted {
		return "", fmt.Errorf("file %d is not downloaded", fileID)
	}
	return file.Local.Path, nil
}

// DeletePhoto drops the local copy of a downloaded file
func (t *TDLib) DeletePhoto(fileID int32) error {
	if _, err := t.client.DeleteFile(&client.DeleteFileRequest{FileId: fileID}); err != nil {
		return fmt.Errorf("DeleteFile failed: %w", err)
	}
	return nil
}
