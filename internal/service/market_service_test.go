package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/predictamm/internal/asset"
	"github.com/alanyoungcy/predictamm/internal/domain"
	"github.com/alanyoungcy/predictamm/internal/market"
)

type memMarketStore struct {
	upserts []domain.Market
}

func (m *memMarketStore) Upsert(_ context.Context, mk domain.Market) error {
	m.upserts = append(m.upserts, mk)
	return nil
}

func (m *memMarketStore) GetByID(_ context.Context, id uint64) (domain.Market, error) {
	for i := len(m.upserts) - 1; i >= 0; i-- {
		if m.upserts[i].ID == id {
			return m.upserts[i], nil
		}
	}
	return domain.Market{}, domain.ErrNotFound
}

func (m *memMarketStore) List(_ context.Context, _ domain.ListOpts) ([]domain.Market, error) {
	return m.upserts, nil
}

func (m *memMarketStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.upserts)), nil
}

type memEventStore struct {
	events []domain.Event
}

func (m *memEventStore) Append(_ context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memEventStore) ListByMarket(_ context.Context, marketID uint64, _ domain.ListOpts) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.events {
		if e.MarketID == marketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memPriceCache struct {
	prices map[uint64]domain.PricePair
}

func (m *memPriceCache) SetPrices(_ context.Context, marketID uint64, p domain.PricePair, _ time.Time) error {
	if m.prices == nil {
		m.prices = make(map[uint64]domain.PricePair)
	}
	m.prices[marketID] = p
	return nil
}

func (m *memPriceCache) GetPrices(_ context.Context, marketID uint64) (domain.PricePair, time.Time, error) {
	p, ok := m.prices[marketID]
	if !ok {
		return domain.PricePair{}, time.Time{}, domain.ErrNotFound
	}
	return p, time.Time{}, nil
}

type memBus struct {
	published [][]byte
}

func (m *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	m.published = append(m.published, payload)
	return nil
}

func (m *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type svcEnv struct {
	svc     *MarketService
	bank    *asset.Bank
	markets *memMarketStore
	events  *memEventStore
	prices  *memPriceCache
	bus     *memBus
	now     time.Time
}

func newSvcEnv(t *testing.T) *svcEnv {
	t.Helper()
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	bank := asset.NewBank()
	for _, h := range []string{"alice", "bob"} {
		if err := bank.Deposit(h, 1_000_000); err != nil {
			t.Fatalf("deposit %s: %v", h, err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := market.NewRegistry(bank, market.Config{
		Resolver: "oracle",
		Owner:    "admin",
		Now:      func() time.Time { return now },
	}, logger)

	env := &svcEnv{
		bank:    bank,
		markets: &memMarketStore{},
		events:  &memEventStore{},
		prices:  &memPriceCache{},
		bus:     &memBus{},
		now:     now,
	}
	env.svc = NewMarketService(reg, Options{
		Markets: env.markets,
		Events:  env.events,
		Prices:  env.prices,
		Bus:     env.bus,
		Now:     func() time.Time { return now },
	}, logger)
	return env
}

func TestCreateMarketRecordsSideEffects(t *testing.T) {
	env := newSvcEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateMarket(ctx, "alice", "Will it rain tomorrow?", env.now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	if len(env.events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(env.events.events))
	}
	e := env.events.events[0]
	if e.Type != domain.EventMarketCreated || e.MarketID != id || e.Actor != "alice" {
		t.Errorf("event = %+v", e)
	}
	if e.ID == "" {
		t.Error("event id not assigned")
	}

	if len(env.markets.upserts) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(env.markets.upserts))
	}
	if env.markets.upserts[0].Question != "Will it rain tomorrow?" {
		t.Errorf("snapshot question = %q", env.markets.upserts[0].Question)
	}

	// Empty pool caches the 50/50 prior.
	p, ok := env.prices.prices[id]
	if !ok || p.YesBps != 5000 || p.NoBps != 5000 {
		t.Errorf("cached prices = %+v ok=%v, want 5000/5000", p, ok)
	}

	if len(env.bus.published) != 1 {
		t.Fatalf("published = %d, want 1", len(env.bus.published))
	}
	var pub domain.Event
	if err := json.Unmarshal(env.bus.published[0], &pub); err != nil {
		t.Fatalf("published payload not JSON: %v", err)
	}
	if pub.Type != domain.EventMarketCreated {
		t.Errorf("published type = %s", pub.Type)
	}
}

func TestTradeFlowSideEffects(t *testing.T) {
	env := newSvcEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateMarket(ctx, "alice", "Will the launch happen this quarter?", env.now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	if err := env.svc.AddLiquidity(ctx, "alice", id, 1000); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}

	res, err := env.svc.BuyShares(ctx, "bob", id, true, 100, 0)
	if err != nil {
		t.Fatalf("BuyShares: %v", err)
	}
	if res.SharesOut != 90 || res.Fee != 2 {
		t.Fatalf("trade = %+v, want SharesOut=90 Fee=2", res)
	}

	types := make([]domain.EventType, 0, len(env.events.events))
	for _, e := range env.events.events {
		types = append(types, e.Type)
	}
	want := []domain.EventType{
		domain.EventMarketCreated,
		domain.EventLiquidityAdded,
		domain.EventTradeExecuted,
	}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}

	trade := env.events.events[2]
	if trade.Amount != 100 || trade.SharesOut != 90 || trade.Fee != 2 || !trade.IsYes {
		t.Errorf("trade event = %+v", trade)
	}

	// The cache now reflects the skewed pool.
	p := env.prices.prices[id]
	if p.YesBps >= 5000 {
		t.Errorf("yes price after yes buy = %d, want < 5000", p.YesBps)
	}

	// SpotPrices prefers the cache.
	got, err := env.svc.SpotPrices(ctx, id)
	if err != nil {
		t.Fatalf("SpotPrices: %v", err)
	}
	if got != p {
		t.Errorf("SpotPrices = %+v, want cached %+v", got, p)
	}

	// The latest snapshot carries the post-trade reserves.
	snap := env.markets.upserts[len(env.markets.upserts)-1]
	if snap.TotalYesShares != 1098 || snap.TotalNoShares != 910 {
		t.Errorf("snapshot reserves = %d/%d, want 1098/910", snap.TotalYesShares, snap.TotalNoShares)
	}
}

func TestFailedMutationRecordsNothing(t *testing.T) {
	env := newSvcEnv(t)
	ctx := context.Background()

	if _, err := env.svc.BuyShares(ctx, "bob", 42, true, 100, 0); err == nil {
		t.Fatal("BuyShares on missing market succeeded")
	}
	if len(env.events.events) != 0 {
		t.Errorf("events = %d, want 0", len(env.events.events))
	}
	if len(env.bus.published) != 0 {
		t.Errorf("published = %d, want 0", len(env.bus.published))
	}
}

func TestResolveAndClaimEvents(t *testing.T) {
	env := newSvcEnv(t)
	ctx := context.Background()

	id, err := env.svc.CreateMarket(ctx, "alice", "Does the vote pass?", env.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	if err := env.svc.AddLiquidity(ctx, "alice", id, 1000); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if _, err := env.svc.BuyShares(ctx, "bob", id, true, 100, 0); err != nil {
		t.Fatalf("BuyShares: %v", err)
	}

	if err := env.svc.ForceResolveMarket(ctx, "oracle", id, domain.OutcomeYes); err != nil {
		t.Fatalf("ForceResolveMarket: %v", err)
	}

	payout, err := env.svc.ClaimWinnings(ctx, "bob", id)
	if err != nil {
		t.Fatalf("ClaimWinnings: %v", err)
	}
	if payout != 90 {
		t.Errorf("payout = %d, want 90", payout)
	}

	last := env.events.events[len(env.events.events)-1]
	if last.Type != domain.EventWinningsClaimed || last.Amount != 90 || last.Actor != "bob" {
		t.Errorf("claim event = %+v", last)
	}

	resolved := env.events.events[len(env.events.events)-2]
	if resolved.Type != domain.EventMarketResolved || resolved.Outcome != domain.OutcomeYes {
		t.Errorf("resolve event = %+v", resolved)
	}

	snap := env.markets.upserts[len(env.markets.upserts)-1]
	if snap.Status != domain.MarketStatusResolved || snap.Outcome != domain.OutcomeYes {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestEventsWithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bank := asset.NewBank()
	reg := market.NewRegistry(bank, market.Config{Resolver: "oracle", Owner: "admin"}, logger)

	standalone := NewMarketService(reg, Options{}, logger)
	events, err := standalone.Events(context.Background(), 0, domain.ListOpts{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if events != nil {
		t.Errorf("events = %v, want nil", events)
	}
}
