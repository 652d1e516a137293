package svc

import (
	"sync"
	"sync/atomic"
	"time"

	"snipbin/cfg"
	"snipbin/svc/cache"
	"snipbin/svc/db"
	"snipbin/svc/util"
)

// Service is the storage/indexing/expiry engine. It owns the three keyed
// collections (profiles, pastes, short links) through the SQLite store and
// serializes every mutation behind a single lock: each public write runs to
// completion before the next one starts, and the expiry callbacks interleave
// through the same lock. Reads go straight to the caches and the store.
type Service struct {
	db  *db.SQLite
	lru *cache.LRU
	rdb *db.Redis
	cfg *cfg.Cfg

	// mu is the single-writer mutation lock.
	mu sync.Mutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	shutdown atomic.Bool
}

func New(sqlDB *db.SQLite, lru *cache.LRU, rdb *db.Redis, c *cfg.Cfg) *Service {
	if sqlDB == nil || lru == nil || c == nil {
		panic("snipbin service: nil dependency (sqlDB, lru, or cfg)")
	}
	return &Service{
		db:     sqlDB,
		lru:    lru,
		rdb:    rdb,
		cfg:    c,
		timers: make(map[string]*time.Timer),
	}
}

// Shutdown stops pending expiry timers. Pastes whose timers are dropped here
// are tombstoned on the next start by ReloadExpiries.
func (s *Service) Shutdown() {
	s.shutdown.Store(true)
	s.timersMu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.timersMu.Unlock()
	util.Debug().Msg("engine shutdown complete")
}
