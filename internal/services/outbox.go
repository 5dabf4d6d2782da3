package services

import (
	"context"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/pkg/logger"
)

type effectKind int

const (
	effectHistory effectKind = iota
	effectNotify
	effectIndexSync
)

type historyEntry struct {
	BidderID string
	Category string
	ItemName string
}

type sideEffect struct {
	kind         effectKind
	history      historyEntry
	notification *domain.Notification
	snapshot     domain.AuctionSnapshot
}

// outbox collects side effects inside the critical section. It is drained in
// queue order once the auction lock is released.
type outbox struct {
	effects   []sideEffect
	persisted *domain.AuctionSnapshot
}

func newOutbox() *outbox {
	return &outbox{}
}

func (o *outbox) recordHistory(bidderID, category, itemName string) {
	o.effects = append(o.effects, sideEffect{
		kind:    effectHistory,
		history: historyEntry{BidderID: bidderID, Category: category, ItemName: itemName},
	})
}

func (o *outbox) notify(n *domain.Notification) {
	o.effects = append(o.effects, sideEffect{kind: effectNotify, notification: n})
}

// auctionPersisted remembers the latest auction state written to the store.
func (o *outbox) auctionPersisted(a *domain.Auction) {
	snapshot := a.Snapshot()
	o.persisted = &snapshot
}

// seal queues one index sync for the last persisted auction state, if any.
func (o *outbox) seal() {
	if o.persisted == nil {
		return
	}
	o.effects = append(o.effects, sideEffect{kind: effectIndexSync, snapshot: *o.persisted})
	o.persisted = nil
}

func (o *outbox) size() int {
	return len(o.effects)
}

// IndexRetryQueue takes auctions whose index upsert failed.
type IndexRetryQueue interface {
	Enqueue(ctx context.Context, auctionID string)
}

type EffectDispatcher struct {
	history  domain.HistorySink
	notifier domain.Notifier
	index    domain.IndexSyncer
	retries  IndexRetryQueue
	timeout  time.Duration
	log      logger.Logger
}

func NewEffectDispatcher(
	history domain.HistorySink,
	notifier domain.Notifier,
	index domain.IndexSyncer,
	retries IndexRetryQueue,
	timeout time.Duration,
	log logger.Logger,
) *EffectDispatcher {
	return &EffectDispatcher{
		history:  history,
		notifier: notifier,
		index:    index,
		retries:  retries,
		timeout:  timeout,
		log:      log,
	}
}

// Dispatch runs every queued effect. Failures are logged and never returned.
func (d *EffectDispatcher) Dispatch(ctx context.Context, o *outbox) {
	if o.size() == 0 {
		return
	}

	// The bid is already committed; a cancelled request must not drop its effects.
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	for _, fx := range o.effects {
		switch fx.kind {
		case effectHistory:
			if err := d.history.Upsert(ctx, fx.history.BidderID, fx.history.Category, fx.history.ItemName); err != nil {
				d.log.Warn("Failed to upsert bid history", "bidder_id", fx.history.BidderID, "error", err)
			}
		case effectNotify:
			if err := d.notifier.Notify(ctx, fx.notification); err != nil {
				d.log.Warn("Failed to send notification", "recipient_id", fx.notification.RecipientID,
					"kind", fx.notification.Kind, "auction_id", fx.notification.AuctionID, "error", err)
			}
		case effectIndexSync:
			if err := d.index.Upsert(ctx, fx.snapshot); err != nil {
				d.log.Warn("Failed to sync auction to index, queued for retry", "auction_id", fx.snapshot.ID, "error", err)
				if d.retries != nil {
					d.retries.Enqueue(ctx, fx.snapshot.ID)
				}
			}
		}
	}
	o.effects = nil
}
