package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const notifyTimeout = 5 * time.Second

// SendAppointmentEmail delivers a built message asynchronously, best
// effort. A nil sender or empty recipient is a no-op.
func SendAppointmentEmail(client EmailSender, recipient string, msg Message, logger *zerolog.Logger) {
	if client == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || msg.Subject == "" || msg.Body == "" {
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := client.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send appointment email")
		}
	}()
}
