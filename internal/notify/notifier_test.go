package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

type captureSender struct {
	name     string
	titles   []string
	messages []string
	err      error
}

func (c *captureSender) Send(_ context.Context, title, message string) error {
	if c.err != nil {
		return c.err
	}
	c.titles = append(c.titles, title)
	c.messages = append(c.messages, message)
	return nil
}

func (c *captureSender) Name() string { return c.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyEventDispatch(t *testing.T) {
	s := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	err := n.NotifyEvent(context.Background(), domain.Event{
		Type:     domain.EventMarketResolved,
		MarketID: 3,
		Actor:    "oracle",
		Outcome:  domain.OutcomeYes,
	})
	if err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("sent = %d, want 1", len(s.titles))
	}
	if !strings.Contains(s.titles[0], "#3") || !strings.Contains(s.messages[0], "YES") {
		t.Errorf("alert = %q / %q", s.titles[0], s.messages[0])
	}
}

func TestNotifyEventFilter(t *testing.T) {
	s := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{s}, []string{"market_resolved"}, testLogger())

	if err := n.NotifyEvent(context.Background(), domain.Event{
		Type: domain.EventTradeExecuted, MarketID: 1, Actor: "bob",
	}); err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("filtered event was delivered: %v", s.titles)
	}

	if err := n.NotifyEvent(context.Background(), domain.Event{
		Type: domain.EventMarketResolved, MarketID: 1, Actor: "oracle", Outcome: domain.OutcomeNo,
	}); err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("allowed event not delivered")
	}
}

func TestDispatchCollectsSenderErrors(t *testing.T) {
	bad := &captureSender{name: "bad", err: errors.New("boom")}
	good := &captureSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyEvent(context.Background(), domain.Event{
		Type: domain.EventMarketCreated, MarketID: 0, Actor: "alice",
	})
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error = %v, want mention of failed sender", err)
	}
	// The failing sender does not block the healthy one.
	if len(good.titles) != 1 {
		t.Errorf("good sender sent = %d, want 1", len(good.titles))
	}
}

func TestNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.NotifyEvent(context.Background(), domain.Event{
		Type: domain.EventMarketCreated,
	}); err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
}
