// Package telegram adapts the Telegram Bot API to the chat transport
// contract: long-polled updates are normalized into chat.Incoming events and
// engine prompts become messages with inline keyboards.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/ratelimit"
)

type Config struct {
	// RateLimit caps candidate events per identity within RateWindow.
	// Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

type Bot struct {
	api     *tgbotapi.BotAPI
	handler chat.Handler
	limiter *ratelimit.Limiter
	cfg     Config
	logger  *zap.Logger
}

func New(token string, handler chat.Handler, limiter *ratelimit.Limiter, cfg Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api:     api,
		handler: handler,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Send implements chat.Sender.
func (b *Bot) Send(_ context.Context, chatID int64, out chat.Outgoing) error {
	msg := tgbotapi.NewMessage(chatID, out.Text)
	if len(out.Buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(out.Buttons))
		for _, row := range out.Buttons {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, button := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Data))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	b.logger.Info("telegram transport started", zap.String("bot", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := normalize(update)
			if !ok {
				continue
			}

			if update.CallbackQuery != nil {
				// Stop the client-side spinner regardless of the outcome.
				if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
					b.logger.Debug("answer callback query", zap.Error(err))
				}
			}

			if !b.allow(in.ChatID) {
				b.logger.Warn("rate limited", zap.Int64("chat_id", in.ChatID))
				continue
			}

			// Each update gets its own goroutine so a slow conversation never
			// stalls the poll loop; the engine serializes per chat.
			go b.handler.Handle(ctx, in)
		}
	}
}

func (b *Bot) allow(chatID int64) bool {
	if b.cfg.RateLimit <= 0 {
		return true
	}
	return b.limiter.Allow(fmt.Sprintf("chat:%d", chatID), b.cfg.RateLimit, b.cfg.RateWindow)
}

func normalize(update tgbotapi.Update) (chat.Incoming, bool) {
	if cq := update.CallbackQuery; cq != nil && cq.Message != nil {
		return chat.Incoming{
			ChatID:   cq.Message.Chat.ID,
			Kind:     chat.KindCallback,
			Callback: cq.Data,
		}, true
	}

	msg := update.Message
	if msg == nil {
		return chat.Incoming{}, false
	}

	in := chat.Incoming{ChatID: msg.Chat.ID}

	switch {
	case msg.IsCommand():
		in.Kind = chat.KindCommand
		in.Command = msg.Command()
		in.Args = strings.TrimSpace(msg.CommandArguments())
	case msg.Document != nil:
		in.Kind = chat.KindText
		in.FileRef = msg.Document.FileID
		in.Text = msg.Caption
	default:
		in.Kind = chat.KindText
		in.Text = msg.Text
	}

	return in, true
}
