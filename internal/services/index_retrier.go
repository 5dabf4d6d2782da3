package services

import (
	"context"
	"errors"

	"bidmarket/internal/domain"
	"bidmarket/pkg/logger"

	"github.com/robfig/cron/v3"
)

const retryBatchSize = 100

// IndexRetrier re-syncs auctions whose index upsert failed. It always pushes
// the current stored state, not the snapshot that failed.
type IndexRetrier struct {
	cron        *cron.Cron
	spec        string
	auctionRepo domain.AuctionRepository
	index       domain.IndexSyncer
	backlog     domain.SyncBacklog
	leader      domain.LeaderElection
	instanceID  string
	log         logger.Logger
}

func NewIndexRetrier(auctionRepo domain.AuctionRepository, index domain.IndexSyncer, backlog domain.SyncBacklog,
	spec string, log logger.Logger) *IndexRetrier {
	return &IndexRetrier{
		cron:        cron.New(cron.WithSeconds()),
		spec:        spec,
		auctionRepo: auctionRepo,
		index:       index,
		backlog:     backlog,
		log:         log,
	}
}

// SetLeaderElection restricts scheduled passes to the elected instance.
func (r *IndexRetrier) SetLeaderElection(leader domain.LeaderElection, instanceID string) {
	r.leader = leader
	r.instanceID = instanceID
}

func (r *IndexRetrier) Enqueue(ctx context.Context, auctionID string) {
	if err := r.backlog.Add(ctx, auctionID); err != nil {
		r.log.Error("Failed to queue index retry", "auction_id", auctionID, "error", err)
	}
}

func (r *IndexRetrier) Start(ctx context.Context) error {
	r.log.Info("Starting index sync retrier", "spec", r.spec)

	_, err := r.cron.AddFunc(r.spec, func() {
		if !r.isLeader(ctx) {
			return
		}
		r.RetryPending(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *IndexRetrier) Stop() error {
	r.log.Info("Stopping index sync retrier")
	<-r.cron.Stop().Done()
	return nil
}

func (r *IndexRetrier) isLeader(ctx context.Context) bool {
	if r.leader == nil {
		return true
	}
	isLeader, err := r.leader.IsLeader(ctx, r.instanceID)
	if err != nil {
		r.log.Error("Failed to check leadership", "instance_id", r.instanceID, "error", err)
		return false
	}
	return isLeader
}

// RetryPending makes one pass over a batch of the backlog and reports how many
// auctions were synced. Failures go back to the backlog.
func (r *IndexRetrier) RetryPending(ctx context.Context) int {
	batch, err := r.backlog.Pop(ctx, retryBatchSize)
	if err != nil {
		r.log.Error("Failed to read index retry backlog", "error", err)
		return 0
	}

	synced := 0
	for _, auctionID := range batch {
		auction, err := r.auctionRepo.GetByID(ctx, auctionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.log.Warn("Dropping index retry for missing auction", "auction_id", auctionID)
				continue
			}
			r.log.Error("Failed to load auction for index retry", "auction_id", auctionID, "error", err)
			r.Enqueue(ctx, auctionID)
			continue
		}

		if err := r.index.Upsert(ctx, auction.Snapshot()); err != nil {
			r.log.Error("Index retry failed", "auction_id", auctionID, "error", err)
			r.Enqueue(ctx, auctionID)
			continue
		}
		synced++
	}

	if len(batch) > 0 {
		r.log.Info("Index retry pass finished", "attempted", len(batch), "synced", synced)
	}
	return synced
}
