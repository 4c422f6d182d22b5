package alerts

import "github.com/rs/zerolog"

// Notifier receives newly created alerts for delivery (email, push,
// webhook). The engine only produces Alert objects; delivery belongs to the
// host application. Implementations are called while the engine processes a
// batch and must not block.
type Notifier interface {
	Dispatch(alert Alert) error
}

// LogNotifier is the default delivery sink: it writes each alert to the
// structured log and nothing else.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// Dispatch logs the alert
func (n *LogNotifier) Dispatch(alert Alert) error {
	n.log.Info().
		Str("alert_id", alert.ID).
		Str("owner", alert.OwnerKey).
		Str("category", string(alert.Category)).
		Str("type", string(alert.Type)).
		Str("severity", string(alert.Severity)).
		Str("title", alert.Title).
		Msg("Alert dispatched")
	return nil
}
