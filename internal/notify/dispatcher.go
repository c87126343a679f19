package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/platform/logger"
)

// LinkDirectory resolves a user's platform links in fallback order
// (primary first, then creation order). The postgres user store implements
// it directly; a Redis-backed cache can wrap it on the dispatch hot path.
type LinkDirectory interface {
	GetPlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error)
}

// LinkCache is the optional read-through cache in front of the directory.
type LinkCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, bool, error)
	Set(ctx context.Context, userID uuid.UUID, links []*domain.PlatformLink) error
}

// Dispatcher delivers text to a user across whichever platform channels the
// user is linked to. It implements channel-substitution fallback: each
// registered, linked channel is tried at most once per dispatch, in link
// order, stopping at the first success. Retry across time is the caller's
// concern (for reminders, the next scheduler tick).
type Dispatcher struct {
	directory   LinkDirectory
	cache       LinkCache // nil disables caching
	registry    *Registry
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
// The cache may be nil, in which case every dispatch reads the directory.
// If log is nil, a default logger will be used.
func NewDispatcher(
	directory LinkDirectory,
	cache LinkCache,
	registry *Registry,
	sendTimeout time.Duration,
	log *slog.Logger,
) (*Dispatcher, error) {
	if directory == nil {
		return nil, fmt.Errorf("directory cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if sendTimeout <= 0 {
		return nil, fmt.Errorf("send timeout must be positive")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		directory:   directory,
		cache:       cache,
		registry:    registry,
		sendTimeout: sendTimeout,
		logger:      log.With(slog.String("component", "dispatcher")),
	}, nil
}

// Deliver attempts to send text to the user. It returns true as soon as one
// channel accepts the message, and false once every registered, linked
// channel has been tried and failed, or when the user has no platform links
// at all. A false return is not an error: total delivery failure is an
// expected condition the caller retries later.
func (d *Dispatcher) Deliver(ctx context.Context, userID uuid.UUID, text string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	links, err := d.resolveLinks(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve platform links: %w", err)
	}

	if len(links) == 0 {
		log.Warn("no platform links for user",
			slog.String("user_id", userID.String()))
		return false, nil
	}

	attempted := 0
	for _, link := range links {
		ch, ok := d.registry.Get(link.Platform)
		if !ok {
			log.Debug("no channel registered for platform",
				slog.String("platform", link.Platform),
				slog.String("user_id", userID.String()))
			continue
		}

		attempted++
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := ch.Send(sendCtx, link.PlatformUserID, text)
		cancel()

		if err == nil {
			log.Debug("notification delivered",
				slog.String("user_id", userID.String()),
				slog.String("platform", link.Platform),
				slog.Bool("is_primary", link.IsPrimary))
			return true, nil
		}

		// Channel failure is recoverable at the dispatch level: fall
		// through to the next linked platform.
		log.Warn("channel send failed, trying next link",
			slog.String("user_id", userID.String()),
			slog.String("platform", link.Platform),
			slog.String("error", err.Error()))
	}

	log.Error("all platform sends failed for user",
		slog.String("user_id", userID.String()),
		slog.Int("links", len(links)),
		slog.Int("attempted", attempted))
	return false, nil
}

// resolveLinks consults the cache when configured, falling back to the
// directory. Cache errors degrade to a directory read instead of failing
// the dispatch.
func (d *Dispatcher) resolveLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error) {
	if d.cache != nil {
		links, hit, err := d.cache.Get(ctx, userID)
		if err != nil {
			d.logger.Warn("link cache read failed, falling back to directory",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		} else if hit {
			return links, nil
		}
	}

	links, err := d.directory.GetPlatformLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, userID, links); err != nil {
			d.logger.Warn("link cache write failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
	}

	return links, nil
}
