package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/predictamm/internal/domain"
)

// multipartThreshold is the payload size above which the archiver switches
// from a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// MarketSource provides read access to market state for archival purposes.
// The in-memory registry satisfies this through its Market method.
type MarketSource interface {
	Market(id uint64) (domain.Market, error)
}

// EventSource provides read access to a market's event history. The
// Postgres event store satisfies this through ListByMarket.
type EventSource interface {
	ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Event, error)
}

// objectChecker reports whether an archive object already exists. Reader
// satisfies this; a nil checker disables the idempotence check.
type objectChecker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver uploads the full event history of a resolved market to object
// storage as JSON lines at markets/{id}/events.jsonl. Archival is an
// explicit admin-triggered step; the primary event log is never deleted
// here.
type Archiver struct {
	markets MarketSource
	events  EventSource
	writer  domain.BlobWriter
	checker objectChecker
	logger  *slog.Logger
}

// NewArchiver creates an Archiver. checker may be nil, in which case
// re-archiving a market silently overwrites the previous object.
func NewArchiver(
	markets MarketSource,
	events EventSource,
	writer domain.BlobWriter,
	checker objectChecker,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		markets: markets,
		events:  events,
		writer:  writer,
		checker: checker,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// ArchivePath returns the object key for a market's event archive.
func ArchivePath(marketID uint64) string {
	return fmt.Sprintf("markets/%d/events.jsonl", marketID)
}

// ArchiveMarket serializes a resolved market's event history to JSONL and
// uploads it. It returns the object path and the number of archived events.
// A market that is still active cannot be archived. Unless force is set, a
// market whose archive object already exists is skipped with a zero count.
func (a *Archiver) ArchiveMarket(ctx context.Context, marketID uint64, force bool) (string, int64, error) {
	m, err := a.markets.Market(marketID)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive market %d: %w", marketID, err)
	}
	if m.Status != domain.MarketStatusResolved {
		return "", 0, fmt.Errorf("s3blob: archive market %d: %w", marketID, domain.ErrMarketNotResolved)
	}

	path := ArchivePath(marketID)

	if !force && a.checker != nil {
		exists, err := a.checker.Exists(ctx, path)
		if err != nil {
			return "", 0, fmt.Errorf("s3blob: archive market %d: %w", marketID, err)
		}
		if exists {
			a.logger.InfoContext(ctx, "archive already present, skipping",
				slog.Uint64("market_id", marketID),
				slog.String("path", path),
			)
			return path, 0, nil
		}
	}

	events, err := a.events.ListByMarket(ctx, marketID, domain.ListOpts{})
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive market %d: list events: %w", marketID, err)
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive market %d: %w", marketID, err)
	}

	if len(buf) > multipartThreshold {
		if mw, ok := a.writer.(*Writer); ok {
			if err := mw.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize); err != nil {
				return "", 0, err
			}
		} else if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return "", 0, err
		}
	} else if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", 0, err
	}

	count := int64(len(events))
	a.logger.InfoContext(ctx, "archived market events",
		slog.Uint64("market_id", marketID),
		slog.String("path", path),
		slog.Int64("count", count),
	)
	return path, count, nil
}

// marshalJSONL serializes a slice of events as newline-delimited JSON.
func marshalJSONL(events []domain.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}
