// Package notify implements best-effort cross-platform notification
// delivery. A registry maps platform identifiers to send-capable channels;
// the dispatcher walks a user's platform links in fallback order until one
// channel accepts the message.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Channel sends text to a platform-specific user identifier. Implementations
// are provided by the chat-platform adapters at process startup and are
// expected to bound each send with their own timeout; a timed-out send is
// reported as an error like any other transport failure.
type Channel interface {
	Send(ctx context.Context, platformUserID, text string) error
}

// ChannelFunc adapts a plain function to the Channel interface.
type ChannelFunc func(ctx context.Context, platformUserID, text string) error

// Send implements Channel.
func (f ChannelFunc) Send(ctx context.Context, platformUserID, text string) error {
	return f(ctx, platformUserID, text)
}

// Registry maps platform identifiers to channels. It is an explicitly
// constructed component, not a process-wide global, so tests can run
// isolated instances side by side.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	logger   *slog.Logger
}

// NewRegistry creates an empty channel registry.
// If logger is nil, a default logger will be used.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		channels: make(map[string]Channel),
		logger:   logger.With(slog.String("component", "channel_registry")),
	}
}

// Register adds a channel for the given platform, replacing any previous
// registration. Registration normally happens once at startup, before the
// scheduler begins ticking.
func (r *Registry) Register(platform string, ch Channel) error {
	if platform == "" {
		return fmt.Errorf("platform cannot be empty")
	}
	if ch == nil {
		return fmt.Errorf("channel cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels[platform] = ch
	r.logger.Info("notification channel registered", slog.String("platform", platform))
	return nil
}

// Get returns the channel registered for a platform, if any.
func (r *Registry) Get(platform string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[platform]
	return ch, ok
}

// Platforms returns the registered platform identifiers.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]string, 0, len(r.channels))
	for platform := range r.channels {
		platforms = append(platforms, platform)
	}
	return platforms
}
