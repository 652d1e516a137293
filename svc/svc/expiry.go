package svc

import (
	"context"
	"time"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/util"
)

// scheduleExpiry registers the one-shot tombstone timer for a paste. Only
// the id is captured: the callback re-reads the live record at fire time, so
// edits made between creation and expiry survive into the tombstone's
// untouched fields. There is no cancellation path and a paste never gets a
// second timer.
func (s *Service) scheduleExpiry(id string, ttl time.Duration) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if _, exists := s.timers[id]; exists {
		return
	}
	s.timers[id] = time.AfterFunc(ttl, func() {
		s.expire(id)
	})
	metrics.ExpiryTimersActive.Inc()
}

func (s *Service) expire(id string) {
	s.timersMu.Lock()
	if _, ok := s.timers[id]; ok {
		delete(s.timers, id)
		metrics.ExpiryTimersActive.Dec()
	}
	s.timersMu.Unlock()

	if s.shutdown.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ContextTimeout)
	defer cancel()
	paste, err := s.db.GetPaste(ctx, id)
	if err != nil {
		util.Error().Err(err).Str("id", id).Msg("expiry fired for unreadable paste")
		return
	}
	if paste.Tombstoned() {
		return
	}
	paste.Tombstone()
	if err := s.db.UpdatePaste(ctx, paste); err != nil {
		util.Error().Err(err).Str("id", id).Msg("failed to tombstone paste")
		return
	}
	s.lru.Delete(id)
	if s.rdb != nil {
		if err := s.rdb.DeletePaste(ctx, id); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to evict tombstoned paste from Redis")
		}
	}
	metrics.PasteTombstoned.Inc()
	util.Info().Str("id", id).Msg("paste tombstoned")
}

// ReloadExpiries restores the expiry schedule after a restart: overdue
// pastes are tombstoned immediately, live ones get a timer for the time
// remaining.
func (s *Service) ReloadExpiries(ctx context.Context) error {
	pending, err := s.db.ScanPastes(ctx, func(p *domain.Paste) bool {
		return !p.Tombstoned()
	})
	if err != nil {
		return err
	}
	now := time.Now()
	overdue := 0
	for _, p := range pending {
		remaining := p.ExpiresAt().Sub(now)
		if remaining <= 0 {
			s.expire(p.ID)
			overdue++
			continue
		}
		s.scheduleExpiry(p.ID, remaining)
	}
	util.Info().
		Int("scheduled", len(pending)-overdue).
		Int("overdue", overdue).
		Msg("expiry schedule restored")
	return nil
}
