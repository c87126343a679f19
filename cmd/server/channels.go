package main

import (
	"context"
	"log/slog"

	"github.com/hearthapp/secretary/internal/notify"
)

// registerChannels wires the notification channels into the registry.
// Chat platform adapters (Telegram, Slack) register their own channels
// when their bot processes attach; the console channel is always present
// so local runs deliver somewhere visible.
func registerChannels(registry *notify.Registry, logger *slog.Logger) {
	consoleLog := logger.With(slog.String("component", "console_channel"))

	console := notify.ChannelFunc(func(ctx context.Context, platformUserID, text string) error {
		consoleLog.Info("notification",
			slog.String("platform_user_id", platformUserID),
			slog.String("text", text))
		return nil
	})

	if err := registry.Register("console", console); err != nil {
		logger.Warn("failed to register console channel", slog.String("error", err.Error()))
	}
}
