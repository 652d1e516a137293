package svc

import (
	"context"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/util"
)

// ResolveShortURL maps a short code to its paste. Bindings are created only
// at paste creation and never rebound, so the binding itself can be cached
// forever; the paste read still goes through the normal path to pick up
// updates and tombstones.
func (s *Service) ResolveShortURL(ctx context.Context, code string) (*domain.Paste, error) {
	var pasteID string
	if s.rdb != nil {
		if id, err := s.rdb.ResolveShortLink(ctx, code); err == nil && id != "" {
			pasteID = id
		}
	}
	if pasteID == "" {
		id, err := s.db.ResolveShortLink(ctx, code)
		if err != nil {
			return nil, err
		}
		pasteID = id
		if s.rdb != nil {
			if err := s.rdb.CacheShortLink(ctx, code, pasteID); err != nil {
				util.Warn().Err(err).Str("code", code).Msg("failed to cache short link")
			}
		}
	}
	p, err := s.GetPaste(ctx, pasteID)
	if err != nil {
		return nil, err
	}
	metrics.ShortLinkResolved.Inc()
	return p, nil
}
