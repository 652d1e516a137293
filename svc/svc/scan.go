package svc

import (
	"context"
	"time"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/util"

	"github.com/pkg/errors"
)

const maxRecentPastes = 10

// GetPaste reads through the LRU, then Redis, then the store.
func (s *Service) GetPaste(ctx context.Context, id string) (*domain.Paste, error) {
	if p := s.lru.Get(id); p != nil {
		metrics.CacheHits.Inc()
		metrics.PasteRetrieved.Inc()
		return p, nil
	}
	metrics.CacheMisses.Inc()

	// Fills hold the mutation lock. An update or tombstone committed while
	// the fill is in flight cannot be overwritten by the copy read before
	// it; the LRU never carries an entry older than the store.
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.lru.Get(id); p != nil {
		metrics.PasteRetrieved.Inc()
		return p, nil
	}
	if s.rdb != nil {
		if p, err := s.rdb.GetPaste(ctx, id); err == nil && p != nil {
			s.lru.Set(p)
			metrics.PasteRetrieved.Inc()
			return p, nil
		}
	}
	p, err := s.db.GetPaste(ctx, id)
	if err != nil {
		return nil, err
	}
	s.lru.Set(p)
	if s.rdb != nil {
		if err := s.rdb.CachePaste(ctx, p); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to cache in Redis")
		}
	}
	metrics.PasteRetrieved.Inc()
	return p, nil
}

// GetPastesByOwner resolves every id in the owner's index, all or nothing:
// a missing profile or a single dangling reference fails the whole call.
func (s *Service) GetPastesByOwner(ctx context.Context, identity string) ([]*domain.Paste, error) {
	if identity == "" {
		return nil, domain.ErrPasteNotFound
	}
	profile, err := s.db.GetProfile(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "lookup owner")
	}
	pastes := make([]*domain.Paste, 0, len(profile.PasteIDs))
	for _, id := range profile.PasteIDs {
		p, err := s.db.GetPaste(ctx, id)
		if err != nil {
			// Dangling index entry: fail loudly rather than return a
			// partial result.
			if errors.Is(err, domain.ErrPasteNotFound) {
				return nil, domain.ErrPasteNotFound
			}
			return nil, errors.Wrap(err, "resolve owned paste")
		}
		pastes = append(pastes, p)
	}
	return pastes, nil
}

// GetRecentPastes returns up to min(count, 10) pastes, newest first. A
// negative count means the default of 10; zero yields an empty sequence.
// Never fails on an empty store.
func (s *Service) GetRecentPastes(ctx context.Context, count int) ([]*domain.Paste, error) {
	if count == 0 {
		return []*domain.Paste{}, nil
	}
	if count < 0 || count > maxRecentPastes {
		count = maxRecentPastes
	}
	return s.db.RecentPastes(ctx, count)
}

func (s *Service) FindPastesByTag(ctx context.Context, tag string) ([]*domain.Paste, error) {
	defer observeScan("tag", time.Now())
	return s.db.ScanPastes(ctx, func(p *domain.Paste) bool {
		return p.HasTag(tag)
	})
}

func (s *Service) FindPastesByName(ctx context.Context, name string) ([]*domain.Paste, error) {
	defer observeScan("name", time.Now())
	return s.db.ScanPastes(ctx, func(p *domain.Paste) bool {
		return p.Name == name
	})
}

func (s *Service) FindPastesByExtension(ctx context.Context, extension string) ([]*domain.Paste, error) {
	defer observeScan("extension", time.Now())
	return s.db.ScanPastes(ctx, func(p *domain.Paste) bool {
		ext, ok := p.Extension()
		return ok && ext == extension
	})
}

func observeScan(predicate string, start time.Time) {
	metrics.ScanDuration.WithLabelValues(predicate).Observe(time.Since(start).Seconds())
}
