package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/i474232898/weatherwave/internal/render"
	"github.com/i474232898/weatherwave/internal/session"
	"github.com/i474232898/weatherwave/internal/weather"
)

type recordingSender chan tgbotapi.Chattable

func (r recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r <- c
	return tgbotapi.Message{}, nil
}

type stubClient struct {
	res weather.WeatherResult
	err error
}

func (s stubClient) Current(context.Context, string, string) (weather.WeatherResult, error) {
	return s.res, s.err
}

func newTestBot(client weather.Client) (*Bot, recordingSender, *session.Registry) {
	sessions := session.NewRegistry(func() *weather.Controller {
		return weather.NewController(client, "key", nil)
	}, time.Hour, 0, nil)
	sent := make(recordingSender, 16)
	return newBot(sent, sessions, nil), sent, sessions
}

func nextSent(t *testing.T, sent recordingSender) tgbotapi.Chattable {
	t.Helper()
	select {
	case c := <-sent:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return nil
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
}

func TestStartCommandGreets(t *testing.T) {
	b, sent, sessions := newTestBot(stubClient{})
	defer sessions.Close()

	msg := textMessage(7, "/start")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
	if err := b.handleMessage(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || m.Text != greetingText || m.ChatID != 7 {
		t.Fatalf("unexpected greeting %#v", m)
	}
	if sessions.Len() != 0 {
		t.Fatal("commands must not create sessions")
	}
}

func TestQueryRendersLoadingThenCard(t *testing.T) {
	res := weather.WeatherResult{
		Location: weather.Location{Name: "Paris", Country: "France"},
		Current:  weather.Current{TempC: "18", Condition: weather.Condition{Icon: "//cdn/64x64/c.png"}},
	}
	b, sent, sessions := newTestBot(stubClient{res: res})
	defer sessions.Close()

	if err := b.handleMessage(textMessage(42, "  Paris ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loading, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || loading.Text != render.LoadingText {
		t.Fatalf("expected loading message, got %#v", loading)
	}
	photo, ok := nextSent(t, sent).(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatal("expected a photo for a successful lookup")
	}
	if photo.File != tgbotapi.FileURL("https://cdn/128x128/c.png") {
		t.Fatalf("unexpected photo %#v", photo.File)
	}
	if !strings.Contains(photo.Caption, "Paris, France") {
		t.Fatalf("unexpected caption %q", photo.Caption)
	}
}

func TestQueryFailureRendersGenericMessage(t *testing.T) {
	b, sent, sessions := newTestBot(stubClient{err: weather.ErrTransport})
	defer sessions.Close()

	b.handleMessage(textMessage(42, "Paris"))
	nextSent(t, sent)

	m, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || m.Text != weather.FailureMessage {
		t.Fatalf("expected generic failure text, got %#v", m)
	}
}

func TestEmptyTextIsRejected(t *testing.T) {
	b, sent, sessions := newTestBot(stubClient{})
	defer sessions.Close()

	b.handleMessage(textMessage(42, "   "))
	m, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || m.Text != emptyText {
		t.Fatalf("unexpected reply %#v", m)
	}
	if sessions.Len() != 0 {
		t.Fatal("empty text must not create a session")
	}
}

func TestQueryAfterEvictionStillReplies(t *testing.T) {
	res := weather.WeatherResult{Location: weather.Location{Name: "Paris", Country: "France"}}
	b, sent, sessions := newTestBot(stubClient{res: res})
	defer sessions.Close()

	evicted, err := sessions.GetOrCreate("tg:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evicted.Close()

	if err := b.handleMessage(textMessage(42, "Paris")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loading, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || loading.Text != render.LoadingText {
		t.Fatalf("expected loading message, got %#v", loading)
	}
	card, ok := nextSent(t, sent).(tgbotapi.MessageConfig)
	if !ok || !strings.Contains(card.Text, "Paris, France") {
		t.Fatalf("expected card for the new session, got %#v", card)
	}
}
