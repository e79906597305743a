package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/i474232898/weatherwave/internal/render"
	"github.com/i474232898/weatherwave/internal/session"
	"github.com/i474232898/weatherwave/internal/weather"
)

const (
	greetingText = "Send me a city name and I'll tell you the weather there."
	emptyText    = "Please send a location, e.g. Paris."
)

// Sender delivers messages to Telegram; *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot renders one view-state controller per chat.
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	sessions *session.Registry
	log      *zap.Logger

	mu       sync.Mutex
	watching map[*weather.Controller]struct{}
}

// NewBot wires a Telegram API client to the session registry.
func NewBot(api *tgbotapi.BotAPI, sessions *session.Registry, logger *zap.Logger) *Bot {
	b := newBot(api, sessions, logger)
	b.api = api
	return b
}

func newBot(sender Sender, sessions *session.Registry, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		sender:   sender,
		sessions: sessions,
		log:      logger,
		watching: make(map[*weather.Controller]struct{}),
	}
}

// Start receives updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started", zap.String("username", b.api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.manageUpdate(update)
		}
	}
}

func (b *Bot) manageUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		// ignore any non-Message updates
		return
	}
	if err := b.handleMessage(update.Message); err != nil {
		b.log.Error("telegram update failed", zap.Int64("chat", update.Message.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			return b.sendText(chatID, greetingText)
		default:
			return nil
		}
	}

	location := strings.TrimSpace(message.Text)
	if location == "" {
		return b.sendText(chatID, emptyText)
	}

	id := "tg:" + strconv.FormatInt(chatID, 10)
	// A sweep may close the controller between lookup and submit; the
	// second lookup then yields a fresh one.
	for attempt := 0; attempt < 2; attempt++ {
		ctrl, err := b.sessions.GetOrCreate(id)
		if err != nil {
			return err
		}
		b.watch(chatID, ctrl)
		if ctrl.Closed() {
			continue
		}
		ctrl.SubmitQuery(location)
		return nil
	}
	return b.sendText(chatID, weather.FailureMessage)
}

// watch starts rendering ctrl's states into the chat unless already doing so.
// It stops when the session is evicted.
func (b *Bot) watch(chatID int64, ctrl *weather.Controller) {
	b.mu.Lock()
	if _, ok := b.watching[ctrl]; ok {
		b.mu.Unlock()
		return
	}
	b.watching[ctrl] = struct{}{}
	b.mu.Unlock()

	states, _ := ctrl.Subscribe()
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.watching, ctrl)
			b.mu.Unlock()
		}()
		for s := range states {
			if err := b.sendState(chatID, s); err != nil {
				b.log.Error("telegram send failed", zap.Int64("chat", chatID), zap.Error(err))
			}
		}
	}()
}

func (b *Bot) sendState(chatID int64, s weather.FetchState) error {
	if res, ok := s.(weather.Success); ok {
		if icon := res.Result.IconURL(); icon != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(icon))
			photo.Caption = render.Card(res.Result)
			_, err := b.sender.Send(photo)
			return err
		}
	}

	text, err := render.Text(s)
	if err != nil || text == "" {
		return err
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.sender.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
