package test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"snipbin/cfg"
	"snipbin/pkg/domain"
	"snipbin/svc/cache"
	"snipbin/svc/db"
	"snipbin/svc/svc"

	"github.com/joho/godotenv"
)

var envLoadOnce sync.Once

func loadTestEnv() {
	envLoadOnce.Do(func() {
		paths := []string{
			".env.test",
			"../.env.test",
		}
		for _, p := range paths {
			if absPath, err := filepath.Abs(p); err == nil {
				if _, err := os.Stat(absPath); err == nil {
					if err := godotenv.Load(absPath); err == nil {
						return
					}
				}
			}
		}
		if os.Getenv("SNIPBIN_JWT_SECRET") == "" {
			os.Setenv("SNIPBIN_JWT_SECRET", "0123456789ABCDEF0123456789ABCDEF")
		}
	})
}

func createTestConfig() *cfg.Cfg {
	loadTestEnv()
	return &cfg.Cfg{
		MinExpireSeconds:  30,
		MaxExpireSeconds:  31536000,
		AnonExpireSeconds: 14400,
		ShortCodeMinLen:   4,
		ShortCodeMaxLen:   10,
		ContextTimeout:    5 * time.Second,
		LRUCacheSize:      256,
	}
}

func createTestDB(t *testing.T) *db.SQLite {
	t.Helper()
	sqlDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func createTestService(t *testing.T) *svc.Service {
	t.Helper()
	c := createTestConfig()
	lru, err := cache.NewLRU(c.LRUCacheSize)
	if err != nil {
		t.Fatalf("lru: %v", err)
	}
	s := svc.New(createTestDB(t), lru, nil, c)
	t.Cleanup(s.Shutdown)
	return s
}

func createProfile(t *testing.T, s *svc.Service, identity string) {
	t.Helper()
	_, err := s.CreateProfile(context.Background(), identity, domain.CreateProfileParams{Name: identity})
	if err != nil {
		t.Fatalf("create profile %s: %v", identity, err)
	}
}
