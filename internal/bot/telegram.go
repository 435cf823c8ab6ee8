package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	sendTimeout = 5 * time.Second
	pollTimeout = 30
)

// Telegram adapts the Bot API to the transport-neutral Event/Reply types.
// It supports both long polling and webhook delivery; the same conversion
// path handles updates from either source.
type Telegram struct {
	api  *tgbotapi.BotAPI
	pool *Pool
}

func NewTelegram(token string) (*Telegram, error) {
	client := &http.Client{Timeout: sendTimeout}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	slog.Info("telegram bot authorised", "username", api.Self.UserName)

	return &Telegram{api: api}, nil
}

// Attach binds the worker pool that will consume converted events.
func (t *Telegram) Attach(pool *Pool) {
	t.pool = pool
}

// Poll runs the long-polling loop until the context is cancelled.
func (t *Telegram) Poll(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout

	updates := t.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.ingest(update)
		}
	}
}

// WebhookHandler decodes webhook updates into the same ingestion path as
// long polling. Telegram retries failed deliveries, so decode errors are
// answered 400 to stop the retry loop for malformed payloads.
func (t *Telegram) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			slog.Warn("failed to decode webhook update", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		t.ingest(update)
		w.WriteHeader(http.StatusOK)
	}
}

// RegisterWebhook points the bot at baseURL + /telegram/webhook.
func (t *Telegram) RegisterWebhook(baseURL string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + "/telegram/webhook")
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}

	if _, err := t.api.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	return nil
}

func (t *Telegram) ingest(update tgbotapi.Update) {
	ev, ok := t.toEvent(update)
	if !ok {
		return
	}
	t.pool.Submit(ev)
}

func (t *Telegram) toEvent(update tgbotapi.Update) (Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		// Ack immediately so the client stops its spinner; the decision
		// outcome arrives as a separate message.
		if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			slog.Warn("failed to ack callback query", "error", err)
		}

		if cq.Message == nil {
			return Event{}, false
		}

		return Event{
			Kind:     KindCallback,
			UserID:   cq.From.ID,
			ChatID:   cq.Message.Chat.ID,
			Callback: cq.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}

	ev := Event{
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
	}

	switch {
	case msg.Contact != nil:
		ev.Kind = KindContact
		ev.Contact = &ContactPayload{
			UserID:    msg.Contact.UserID,
			Phone:     msg.Contact.PhoneNumber,
			FirstName: msg.Contact.FirstName,
			LastName:  msg.Contact.LastName,
		}
	case msg.IsCommand():
		ev.Kind = KindCommand
		ev.Command = msg.Command()
		ev.Args = strings.Fields(msg.CommandArguments())
	case msg.Text != "":
		ev.Kind = KindText
		ev.Text = msg.Text
	default:
		return Event{}, false
	}

	return ev, true
}

// Send implements Sender.
func (t *Telegram) Send(ctx context.Context, reply Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)

	switch {
	case reply.RequestContact:
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact("Share my contact"),
			),
		)
		keyboard.OneTimeKeyboard = true
		msg.ReplyMarkup = keyboard

	case len(reply.Buttons) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
		for _, row := range reply.Buttons {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
