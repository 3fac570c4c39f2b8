package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/snapgram/go-feed-core/content"
	"github.com/snapgram/go-feed-core/internal/metrics"
)

var ItemNotFoundErr = errors.New("feed item not found")

// pendingMutation tracks one optimistically applied toggle until its remote
// write settles. prev is the last value the backend confirmed, used for
// rollback; desired is the latest value the user asked for.
type pendingMutation struct {
	ID         string
	ItemID     string
	Family     Family
	AppliedAt  time.Time
	prev       bool
	desired    bool
	superseded bool
}

type pendingKey struct {
	itemID string
	family Family
}

// Engine makes like/unlike and save/unsave feel instantaneous: the local
// flag flips synchronously, the remote write runs in the background, and the
// result commits or rolls back the flip. While a write for a given
// (item, family) is in flight, further toggles coalesce into it; the worker
// issues one fresh request reflecting only the latest desired value once the
// in-flight one settles, so responses can never re-apply a stale value.
type Engine struct {
	store   *Store
	backend content.Backend
	log     zerolog.Logger
	metrics *metrics.Collector
	nowTime func() time.Time
	onError func(itemID string, family Family, err error)

	mu      sync.Mutex
	pending map[pendingKey]*pendingMutation
	wg      sync.WaitGroup
}

// EngineOption defines a function type to modify the Engine instance.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithEngineMetrics sets the metrics collector. A nil collector is a no-op.
func WithEngineMetrics(m *metrics.Collector) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowTime = nowFunc
	}
}

// WithErrorHandler sets the non-blocking surface for rollback notices. The
// default logs and drops them; a toggle is low-stakes and instantly
// retryable by tapping again.
func WithErrorHandler(fn func(itemID string, family Family, err error)) EngineOption {
	return func(e *Engine) {
		e.onError = fn
	}
}

// NewEngine initializes a new Engine with required dependencies.
func NewEngine(store *Store, backend content.Backend, options ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, errors.New("[NewEngine] feed store is required")
	}
	if backend == nil {
		return nil, errors.New("[NewEngine] content backend is required")
	}

	engine := &Engine{
		store:   store,
		backend: backend,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		pending: make(map[pendingKey]*pendingMutation),
	}

	for _, opt := range options {
		opt(engine)
	}

	return engine, nil
}

// Toggle inverts the viewer's boolean for the given family on an item. The
// flip is applied to the store before Toggle returns; the remote write and
// its reconciliation happen in the background.
func (e *Engine) Toggle(ctx context.Context, itemID string, family Family) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.store.Get(itemID)
	if !ok {
		return errors.Wrapf(ItemNotFoundErr, "[Toggle] item %q", itemID)
	}

	desired := !item.flag(family)
	e.store.setFlag(itemID, family, desired)
	e.metrics.RecordToggleApplied(kindName(family, desired))

	key := pendingKey{itemID: itemID, family: family}
	if p, ok := e.pending[key]; ok {
		// A write is already in flight: fold this toggle into it rather
		// than firing an overlapping request.
		p.desired = desired
		p.superseded = true
		e.metrics.RecordToggleCoalesced()
		return nil
	}

	p := &pendingMutation{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		Family:    family,
		AppliedAt: e.nowTime(),
		prev:      item.flag(family),
		desired:   desired,
	}
	e.pending[key] = p

	e.wg.Add(1)
	go e.settle(ctx, key, p)
	return nil
}

// Wait blocks until every in-flight mutation has settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// PendingCount reports the number of in-flight mutations.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// settle drives one pending mutation to completion, re-issuing a fresh
// request whenever the settled one turns out to have been superseded.
func (e *Engine) settle(ctx context.Context, key pendingKey, p *pendingMutation) {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		sent := p.desired
		p.superseded = false
		e.mu.Unlock()

		var result *content.LikeResult
		var err error
		if key.family == FamilySave {
			err = e.backend.SetSaved(ctx, key.itemID, sent)
		} else {
			result, err = e.backend.SetLiked(ctx, key.itemID, sent)
		}

		e.mu.Lock()
		if p.superseded {
			// A newer toggle arrived while this request was in flight. Its
			// response must not touch local state; it only moves the
			// rollback baseline when the backend accepted the write.
			if err == nil {
				p.prev = sent
			}
			e.mu.Unlock()
			continue
		}

		if err != nil {
			e.store.setFlag(key.itemID, key.family, p.prev)
			e.metrics.RecordToggleRolledBack(kindName(key.family, sent))
			e.log.Warn().Err(err).
				Str("mutation_id", p.ID).
				Str("item_id", key.itemID).
				Str("family", string(key.family)).
				Msg("toggle write failed, rolled back")
			if e.onError != nil {
				e.onError(key.itemID, key.family, err)
			}
		} else if key.family == FamilyLike && result != nil {
			// Never trust the optimistic increment for the count, only for
			// the viewer's own flag.
			e.store.setLikeCount(key.itemID, result.AuthoritativeCount)
		}

		delete(e.pending, key)
		e.mu.Unlock()
		return
	}
}

func kindName(family Family, desired bool) string {
	switch {
	case family == FamilyLike && desired:
		return "like"
	case family == FamilyLike:
		return "unlike"
	case desired:
		return "save"
	default:
		return "unsave"
	}
}
