package importer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/internal/store"
)

// Notifier delivers a user's new password to them
type Notifier interface {
	SendPassword(ctx context.Context, user *store.User, password string) error
}

// LogNotifier records password notifications in the log without the password
type LogNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger discards output.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPassword(_ context.Context, user *store.User, _ string) error {
	n.logger.Info().
		Str("username", user.Username).
		Str("email", user.Email).
		Msg("Password notification")
	return nil
}
