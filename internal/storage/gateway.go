package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/logvault-io/logvault/internal/model"
)

// DefaultRecentLimit caps recent reads when the caller passes no limit.
const DefaultRecentLimit = 100

// GatewayConfig tunes the write-path retry policy.
type GatewayConfig struct {
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Gateway owns the append-only write path and the bounded time-ordered read
// path. It is stateless and safe under arbitrary concurrent use: every write is
// one atomic put against the store and ordering comes from the index sort key,
// so no in-process coordination is needed.
type Gateway struct {
	store    Store
	stream   StreamStrategy
	log      zerolog.Logger
	attempts int
	backoff  time.Duration
}

// NewGateway returns a Gateway over store using the given stream strategy.
func NewGateway(store Store, stream StreamStrategy, log zerolog.Logger, cfg GatewayConfig) *Gateway {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Gateway{
		store:    store,
		stream:   stream,
		log:      log,
		attempts: cfg.RetryAttempts,
		backoff:  cfg.RetryBackoff,
	}
}

// Append persists one entry as a single atomic put keyed by its id, populating
// the index discriminator and sort attribute in the same write. A duplicate id
// overwrites the previous item. Retryable store failures are retried with
// doubling backoff up to the configured attempts; all other failures surface
// immediately and are never retried.
func (g *Gateway) Append(ctx context.Context, entry model.Entry) error {
	rec := Record{
		AttrID:       entry.ID,
		AttrDateTime: entry.DateTime,
		AttrSeverity: string(entry.Severity),
		AttrMessage:  entry.Message,
		AttrStream:   g.stream.WriteKey(entry.DateTime),
	}

	backoff := g.backoff
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		err := g.store.Put(ctx, rec)
		if err == nil {
			return nil
		}
		lastErr = err
		var serr *StorageError
		if !errors.As(err, &serr) || !serr.Retryable() {
			return err
		}
		if attempt == g.attempts {
			break
		}
		g.log.Warn().Err(err).Int("attempt", attempt).Str("id", entry.ID).Msg("append failed, retrying")
		select {
		case <-ctx.Done():
			return &StorageError{Op: "append", Cause: CauseUnavailable, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

// RecentResult is a bounded newest-first read plus the number of malformed
// records skipped while assembling it.
type RecentResult struct {
	Entries []model.Entry
	Skipped int
}

// QueryRecent returns up to limit entries newest first. It issues one
// descending range query per read key of the stream strategy (exactly one
// under SingleStream), merges by sort key, and caps at limit. Records missing
// any of the four entry fields are skipped and counted rather than failing the
// read.
func (g *Gateway) QueryRecent(ctx context.Context, limit int32) (RecentResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var res RecentResult
	for _, key := range g.stream.ReadKeys() {
		recs, err := g.store.QueryStream(ctx, key, limit)
		if err != nil {
			return RecentResult{}, err
		}
		for _, rec := range recs {
			entry, err := entryFromRecord(rec)
			if err != nil {
				res.Skipped++
				g.log.Warn().Err(err).Msg("skipping malformed record")
				continue
			}
			res.Entries = append(res.Entries, entry)
		}
	}
	// ISO 8601 with explicit offset sorts lexically; stable keeps store order
	// for equal timestamps (tie order is undefined by contract).
	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].DateTime > res.Entries[j].DateTime
	})
	if int32(len(res.Entries)) > limit {
		res.Entries = res.Entries[:limit]
	}
	return res, nil
}

func entryFromRecord(rec Record) (model.Entry, error) {
	for _, attr := range []string{AttrID, AttrDateTime, AttrSeverity, AttrMessage} {
		if rec[attr] == "" {
			return model.Entry{}, &MalformedRecordError{ID: rec[AttrID], Missing: attr}
		}
	}
	return model.Entry{
		ID:       rec[AttrID],
		DateTime: rec[AttrDateTime],
		Severity: model.Severity(rec[AttrSeverity]),
		Message:  rec[AttrMessage],
	}, nil
}
