package svc

import (
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cacheutil "quantfeed/internal/cache"
	"quantfeed/internal/config"
	"quantfeed/internal/store"
	"quantfeed/pkg/feed"
	"quantfeed/pkg/localdata"
)

type ServiceContext struct {
	Config config.Config

	DBConn sqlx.SqlConn
	Cache  cache.Cache
	TTL    cacheutil.TTLSet
	Local  *localdata.Provider
	Store  *store.Store

	Bus         *feed.EventBus
	Coordinator *feed.SubscriptionCoordinator
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cacheutil.NewTTLSet(c.TTL),
		Local:  localdata.NewProvider(c.DataDir, localdata.NewHTTPDownloader()),
		Bus:    feed.NewEventBus(),
	}

	// Only inject the DB connection when a DSN is provided; the store falls
	// back to local bar files without it.
	if c.Postgres.DSN != "" {
		svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	}

	if strings.TrimSpace(c.Redis.Host) != "" {
		conf := cache.ClusterConf{{RedisConf: c.Redis, Weight: 100}}
		svc.Cache = cache.New(conf, syncx.NewSingleFlight(), cache.NewStat(cacheutil.Namespace), cacheutil.ErrNotFound)
	}

	svc.Store = store.NewStore(svc.DBConn, svc.Cache, svc.Local, svc.TTL)
	svc.Coordinator = feed.NewSubscriptionCoordinator()
	return svc
}

// StartCoordinator binds the coordinator to this context's collaborators and
// opens a new subscription lifetime.
func (s *ServiceContext) StartCoordinator() {
	s.Coordinator.Start(feed.Collaborators{
		Store:       s.Store,
		MapFiles:    s.Store,
		FactorFiles: s.Store,
		Bus:         s.Bus,
	})
}
