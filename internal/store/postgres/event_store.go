package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. The event log
// is append-only; rows are never updated or deleted.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts a single market event.
func (s *EventStore) Append(ctx context.Context, e domain.Event) error {
	const query = `
		INSERT INTO market_events (
			id, type, market_id, actor, amount, shares_out, fee,
			is_yes, outcome, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		e.ID, string(e.Type), int64(e.MarketID), e.Actor,
		int64(e.Amount), int64(e.SharesOut), int64(e.Fee),
		e.IsYes, string(e.Outcome), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", e.Type, err)
	}
	return nil
}

// ListByMarket returns a market's events in chronological order with
// pagination and optional time filtering.
func (s *EventStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Event, error) {
	query := `
		SELECT id, type, market_id, actor, amount, shares_out, fee,
		       is_yes, outcome, created_at
		FROM market_events WHERE market_id = $1`
	args := []any{int64(marketID)}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query += " ORDER BY created_at"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var marketID, amount, sharesOut, fee int64
		var typ, outcome string
		if err := rows.Scan(
			&e.ID, &typ, &marketID, &e.Actor, &amount, &sharesOut, &fee,
			&e.IsYes, &outcome, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.Type = domain.EventType(typ)
		e.MarketID = uint64(marketID)
		e.Amount = uint64(amount)
		e.SharesOut = uint64(sharesOut)
		e.Fee = uint64(fee)
		e.Outcome = domain.Outcome(outcome)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return events, nil
}

var _ domain.EventStore = (*EventStore)(nil)
