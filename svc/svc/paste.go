package svc

import (
	"context"
	"time"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/util"

	"github.com/pkg/errors"
)

// CreatePaste validates everything before touching any collection: short
// code bounds and uniqueness first, then the expiry window, then id
// assignment. The paste, its optional short-link binding and the owner's
// index update land in one store transaction.
func (s *Service) CreatePaste(ctx context.Context, identity string, params domain.CreatePasteParams) (*domain.Paste, error) {
	if s.shutdown.Load() {
		return nil, errors.New("service shutting down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.ShortCode != nil {
		code := *params.ShortCode
		if len(code) < s.cfg.ShortCodeMinLen || len(code) > s.cfg.ShortCodeMaxLen {
			return nil, domain.ErrShortURLOutOfRange
		}
		bound, err := s.db.ShortLinkExists(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "short code lookup")
		}
		if bound {
			return nil, domain.ErrShortURLExists
		}
	}

	// A caller without a resolvable profile is anonymous, even when the
	// boundary layer handed us an identity.
	var owner *domain.Profile
	if identity != "" {
		profile, err := s.db.GetProfile(ctx, identity)
		if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, errors.Wrap(err, "lookup creator")
		}
		owner = profile
	}

	expireSeconds := params.ExpireSeconds
	if owner == nil {
		// Anonymous content cannot persist long-term: the requested
		// value is ignored, not rejected.
		expireSeconds = s.cfg.AnonExpireSeconds
	} else if expireSeconds < s.cfg.MinExpireSeconds || expireSeconds > s.cfg.MaxExpireSeconds {
		return nil, domain.ErrInvalidExpireDate
	}

	id, err := util.GenID(func(candidate string) (bool, error) {
		return s.db.PasteExists(ctx, candidate)
	})
	if err != nil {
		return nil, domain.ErrIDGenerationFailed
	}

	var creator *string
	if owner != nil {
		creator = &owner.ID
		owner.AddPaste(id)
	}
	paste := domain.NewPaste(id, creator, expireSeconds, time.Now(), params)

	if err := s.db.CreatePaste(ctx, paste, params.ShortCode, owner); err != nil {
		return nil, err
	}

	s.lru.Set(paste)
	if s.rdb != nil {
		if err := s.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to cache in Redis")
		}
		if params.ShortCode != nil {
			if err := s.rdb.CacheShortLink(ctx, *params.ShortCode, id); err != nil {
				util.Warn().Err(err).Str("code", *params.ShortCode).Msg("failed to cache short link")
			}
		}
	}

	s.scheduleExpiry(id, time.Duration(expireSeconds)*time.Second)

	metrics.PasteCreated.Inc()
	if params.ShortCode != nil {
		metrics.ShortLinkBound.Inc()
	}
	return paste, nil
}

// UpdatePaste applies a partial update on behalf of the paste's owner.
// Every check runs before any field is written, so a rejected request
// leaves the stored record byte-for-byte unchanged.
func (s *Service) UpdatePaste(ctx context.Context, identity string, pasteID string, params domain.UpdatePasteParams) (*domain.Paste, error) {
	if s.shutdown.Load() {
		return nil, errors.New("service shutting down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity == "" {
		return nil, domain.ErrPasteNotAccessible
	}
	if _, err := s.db.GetProfile(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrPasteNotAccessible
		}
		return nil, errors.Wrap(err, "lookup caller")
	}
	paste, err := s.db.GetPaste(ctx, pasteID)
	if err != nil {
		return nil, err
	}
	// Anonymous-owned pastes have no owner and can never be updated.
	if paste.Creator == nil || *paste.Creator != identity {
		return nil, domain.ErrPasteNotAccessible
	}
	// Tombstoning is terminal.
	if paste.Tombstoned() {
		return nil, domain.ErrPasteNotAccessible
	}

	paste.Apply(params)
	if err := s.db.UpdatePaste(ctx, paste); err != nil {
		return nil, err
	}

	s.lru.Set(paste)
	if s.rdb != nil {
		if err := s.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", pasteID).Msg("failed to refresh Redis cache")
		}
	}
	metrics.PasteUpdated.Inc()
	return paste, nil
}
