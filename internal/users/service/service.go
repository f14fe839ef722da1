package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	evdomain "github.com/corvusHold/rentmail/internal/events/domain"
	domain "github.com/corvusHold/rentmail/internal/users/domain"
)

type service struct {
	repo domain.Repository
	pub  evdomain.Publisher
	log  zerolog.Logger
}

func New(repo domain.Repository, pub evdomain.Publisher, log zerolog.Logger) domain.Service {
	return &service{repo: repo, pub: pub, log: log}
}

func (s *service) Get(ctx context.Context, uid string) (domain.AppUser, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.AppUser{}, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *service) Admins(ctx context.Context) ([]domain.AppUser, error) {
	all, err := s.repo.ListByType(ctx, domain.TypeAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	out := make([]domain.AppUser, 0, len(all))
	for _, u := range all {
		if strings.TrimSpace(u.Email) == "" {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, actorUID, uid string) error {
	actor, err := s.Get(ctx, actorUID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrForbidden
	}
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	if _, err := s.Get(ctx, uid); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return err
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, evdomain.Event{Type: evdomain.TypeUserDeleted, UserID: uid, ActorID: actorUID}); err != nil {
			s.log.Warn().Err(err).Str("uid", uid).Msg("publish user.deleted failed")
		}
	}
	return nil
}
