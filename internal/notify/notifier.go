// Package notify delivers operator alerts for market events over one or
// more channels (Telegram, Discord). Alerts can be filtered by event type
// so operators receive only what they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// Sender is the interface each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier formats market events into operator alerts and dispatches them
// to all registered senders. It maintains a set of allowed event types;
// events outside the set are dropped silently.
type Notifier struct {
	senders []Sender
	events  map[domain.EventType]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// events whose type appears in the events slice are forwarded; an empty
// slice allows all types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.EventType]bool, len(events))
	for _, e := range events {
		allowed[domain.EventType(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyEvent formats the market event and dispatches it to every sender,
// honouring the event-type filter.
func (n *Notifier) NotifyEvent(ctx context.Context, e domain.Event) error {
	if len(n.events) > 0 && !n.events[e.Type] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", string(e.Type)),
		)
		return nil
	}

	title, message := formatEvent(e)
	return n.dispatch(ctx, title, message)
}

// formatEvent renders an event as a short alert title and body.
func formatEvent(e domain.Event) (title, message string) {
	switch e.Type {
	case domain.EventMarketCreated:
		return fmt.Sprintf("Market #%d created", e.MarketID),
			fmt.Sprintf("Creator: %s", e.Actor)
	case domain.EventLiquidityAdded:
		return fmt.Sprintf("Liquidity added to market #%d", e.MarketID),
			fmt.Sprintf("%s deposited %d", e.Actor, e.Amount)
	case domain.EventLiquidityRemoved:
		return fmt.Sprintf("Liquidity removed from market #%d", e.MarketID),
			fmt.Sprintf("%s withdrew %d", e.Actor, e.Amount)
	case domain.EventTradeExecuted:
		side := "NO"
		if e.IsYes {
			side = "YES"
		}
		return fmt.Sprintf("Trade on market #%d", e.MarketID),
			fmt.Sprintf("%s bought %d %s shares for %d (fee %d)",
				e.Actor, e.SharesOut, side, e.Amount, e.Fee)
	case domain.EventMarketResolved:
		return fmt.Sprintf("Market #%d resolved", e.MarketID),
			fmt.Sprintf("Outcome: %s (resolver %s)", strings.ToUpper(string(e.Outcome)), e.Actor)
	case domain.EventWinningsClaimed:
		return fmt.Sprintf("Winnings claimed on market #%d", e.MarketID),
			fmt.Sprintf("%s received %d", e.Actor, e.Amount)
	case domain.EventFeesClaimed:
		return fmt.Sprintf("LP fees claimed on market #%d", e.MarketID),
			fmt.Sprintf("%s received %d", e.Actor, e.Amount)
	default:
		return fmt.Sprintf("Market #%d: %s", e.MarketID, e.Type),
			fmt.Sprintf("Actor: %s", e.Actor)
	}
}

// dispatch sends the alert to every sender. Individual sender failures are
// collected into a combined error; one failure does not block the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
