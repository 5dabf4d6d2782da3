package app

import (
	"context"
	"database/sql"
	"time"

	"bidmarket/internal/config"
	"bidmarket/internal/domain"
	"bidmarket/internal/infrastructure/leader"
	"bidmarket/internal/infrastructure/memory"
	"bidmarket/internal/infrastructure/mysql"
	"bidmarket/internal/infrastructure/redis"
	"bidmarket/internal/services"
	"bidmarket/pkg/logger"
	"bidmarket/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// App holds the wired bid engine and the connections it owns.
type App struct {
	Config  *config.Config
	Log     logger.Logger
	Bids    *services.BidService
	Proxies *services.ProxyBidService
	Retrier *services.IndexRetrier
	Leader  domain.LeaderElection

	rdb *redisClient.Client
	db  *sql.DB
}

type stores struct {
	auctions domain.AuctionRepository
	bids     domain.BidRepository
	proxies  domain.ProxyBidRepository
	uow      domain.UnitOfWork
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	// Initialize Redis
	a.rdb = redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.rdb.Ping(pingCtx).Err(); err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed on connect redis")
	}

	st, err := a.openStores(pingCtx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var locks domain.LockManager
	switch cfg.Lock.Driver {
	case "memory":
		locks = memory.NewLockManager()
	default:
		locks = redis.NewRedisLockManager(a.rdb, cfg.Lock.RetryInterval)
	}

	// Side effect sinks
	historySink := redis.NewRedisHistorySink(a.rdb, cfg.History.TTL)
	notifier := redis.NewRedisNotifier(a.rdb, cfg.Notify.Channel)
	indexSyncer := redis.NewRedisIndexSyncer(a.rdb, cfg.Index.KeyPrefix, cfg.Index.Channel)
	backlog := redis.NewRedisSyncBacklog(a.rdb, cfg.Index.BacklogKey)

	a.Leader = leader.NewRedisLeaderElection(a.rdb, cfg.Leader.Key, cfg.Leader.TTL)
	a.Retrier = services.NewIndexRetrier(st.auctions, indexSyncer, backlog, cfg.Index.RetrySpec, log)
	a.Retrier.SetLeaderElection(a.Leader, cfg.Instance.ID)

	dispatcher := services.NewEffectDispatcher(historySink, notifier, indexSyncer, a.Retrier, cfg.Notify.EffectTimeout, log)
	locker := services.NewAuctionLocker(locks, services.LockSettings{
		KeyPrefix: cfg.Lock.KeyPrefix,
		WaitTime:  cfg.Lock.WaitTime,
		LeaseTime: cfg.Lock.LeaseTime,
	}, log)

	a.Bids = services.NewBidService(st.auctions, st.bids, st.uow, locker, dispatcher, log)
	a.Proxies = services.NewProxyBidService(st.auctions, st.proxies, locker, log)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	if a.Config.Store.Driver == "memory" {
		seed, err := loadSeed(a.Config.Store.SeedFile)
		if err != nil {
			return nil, err
		}
		a.Log.Warn("Using in-memory stores, state is lost on exit", "seeded_auctions", len(seed))

		auctions := memory.NewAuctionRepository(seed...)
		bids := memory.NewBidRepository()
		proxies := memory.NewProxyBidRepository()
		return &stores{
			auctions: auctions,
			bids:     bids,
			proxies:  proxies,
			uow:      memory.NewUnitOfWork(auctions, bids, proxies),
		}, nil
	}

	db, err := utils.InitializeMysql(ctx, a.Config.MySQL)
	if err != nil {
		return nil, err
	}
	a.db = db

	return &stores{
		auctions: mysql.NewMySQLAuctionRepository(db),
		bids:     mysql.NewMySQLBidRepository(db),
		proxies:  mysql.NewMySQLProxyBidRepository(db),
		uow:      mysql.NewMySQLUnitOfWork(db),
	}, nil
}

// Ping checks the connections the engine depends on.
func (a *App) Ping(ctx context.Context) error {
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis")
	}
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return errors.Wrap(err, "mysql")
		}
	}
	return nil
}

func (a *App) Close() error {
	_ = a.Log.Sync()

	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = err
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
