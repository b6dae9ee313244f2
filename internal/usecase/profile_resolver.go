package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/logger"
)

type cachedProfile struct {
	profile entity.Profile
	expires time.Time
}

// ProfileResolver looks up display profiles for chat partners, caching hits
// for a short while. Lookups fan out with bounded concurrency.
type ProfileResolver struct {
	userRepo    repository.UserRepository
	concurrency int
	ttl         time.Duration
	now         func() time.Time

	mu    sync.Mutex
	cache map[string]cachedProfile
}

func NewProfileResolver(userRepo repository.UserRepository, concurrency int, ttl time.Duration) *ProfileResolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ProfileResolver{
		userRepo:    userRepo,
		concurrency: concurrency,
		ttl:         ttl,
		now:         time.Now,
		cache:       make(map[string]cachedProfile),
	}
}

// Resolve returns a profile for every id. A failed lookup yields the
// unknown-user profile and is not cached, so the next batch retries it.
func (p *ProfileResolver) Resolve(ctx context.Context, userIDs []string) map[string]entity.Profile {
	out := make(map[string]entity.Profile, len(userIDs))
	var missing []string

	now := p.now()
	p.mu.Lock()
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := out[id]; dup {
			continue
		}
		if c, ok := p.cache[id]; ok && now.Before(c.expires) {
			out[id] = c.profile
			continue
		}
		out[id] = entity.UnknownProfile(id)
		missing = append(missing, id)
	}
	p.mu.Unlock()

	if len(missing) == 0 {
		return out
	}

	resolved := make([]*entity.Profile, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, id := range missing {
		i, id := i, id
		g.Go(func() error {
			user, err := p.userRepo.GetByID(gctx, id)
			if err != nil {
				logger.Warn("Profile lookup for %s failed: %v", id, err)
				return nil
			}
			profile := user.Profile()
			profile.UserID = id
			resolved[i] = &profile
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, id := range missing {
		if resolved[i] == nil {
			continue
		}
		out[id] = *resolved[i]
		p.cache[id] = cachedProfile{profile: *resolved[i], expires: now.Add(p.ttl)}
	}
	return out
}

func (p *ProfileResolver) Get(ctx context.Context, userID string) entity.Profile {
	return p.Resolve(ctx, []string{userID})[userID]
}
