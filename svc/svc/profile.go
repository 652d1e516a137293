package svc

import (
	"context"

	"snipbin/metrics"
	"snipbin/pkg/domain"

	"github.com/pkg/errors"
)

// CreateProfile registers the one profile a caller identity may hold. The
// owned-paste index starts empty.
func (s *Service) CreateProfile(ctx context.Context, identity string, params domain.CreateProfileParams) (*domain.Profile, error) {
	if identity == "" {
		return nil, domain.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.GetProfile(ctx, identity)
	if err == nil {
		return nil, domain.ErrProfileAlreadyExists
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, errors.Wrap(err, "lookup profile")
	}
	profile := domain.NewProfile(identity, params)
	if err := s.db.PutProfile(ctx, profile); err != nil {
		return nil, err
	}
	metrics.ProfileCreated.Inc()
	return profile, nil
}

func (s *Service) GetProfile(ctx context.Context, identity string) (*domain.Profile, error) {
	if identity == "" {
		return nil, domain.ErrProfileNotFound
	}
	return s.db.GetProfile(ctx, identity)
}

// UpdateProfile applies only the fields present in the partial update.
func (s *Service) UpdateProfile(ctx context.Context, identity string, params domain.UpdateProfileParams) (*domain.Profile, error) {
	if identity == "" {
		return nil, domain.ErrProfileNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, err := s.db.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	profile.Apply(params)
	if err := s.db.PutProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
