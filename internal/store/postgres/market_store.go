package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. Snapshots are
// written by the service after every successful registry mutation; the
// registry stays the source of truth.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, question, creator, resolution_deadline, created_at,
	status, outcome, total_yes_shares, total_no_shares, liquidity_pool, fees_collected`

// Upsert inserts or updates a single market snapshot.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, question, creator, resolution_deadline, created_at,
			status, outcome, total_yes_shares, total_no_shares,
			liquidity_pool, fees_collected, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status           = EXCLUDED.status,
			outcome          = EXCLUDED.outcome,
			total_yes_shares = EXCLUDED.total_yes_shares,
			total_no_shares  = EXCLUDED.total_no_shares,
			liquidity_pool   = EXCLUDED.liquidity_pool,
			fees_collected   = EXCLUDED.fees_collected,
			updated_at       = NOW()`

	_, err := s.pool.Exec(ctx, query,
		int64(m.ID), m.Question, m.Creator, m.ResolutionDeadline, m.CreatedAt,
		string(m.Status), string(m.Outcome),
		int64(m.TotalYesShares), int64(m.TotalNoShares),
		int64(m.LiquidityPool), int64(m.FeesCollected),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %d: %w", m.ID, err)
	}
	return nil
}

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var id, yes, no, pool, fees int64
	var status, outcome string
	err := row.Scan(
		&id, &m.Question, &m.Creator, &m.ResolutionDeadline, &m.CreatedAt,
		&status, &outcome, &yes, &no, &pool, &fees,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.ID = uint64(id)
	m.Status = domain.MarketStatus(status)
	m.Outcome = domain.Outcome(outcome)
	m.TotalYesShares = uint64(yes)
	m.TotalNoShares = uint64(no)
	m.LiquidityPool = uint64(pool)
	m.FeesCollected = uint64(fees)
	return m, nil
}

// GetByID retrieves a market snapshot by its id.
func (s *MarketStore) GetByID(ctx context.Context, id uint64) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, int64(id))
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// List returns market snapshots in id order with pagination.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets ORDER BY id`
	args := []any{}
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
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of market snapshots.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
