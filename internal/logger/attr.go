package logger

import "log/slog"

// Attribute helpers use the empty Attr pattern for nil safety, so callers can
// write log.Info("msg", logger.Error(err)) without explicit nil checks.

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component identifies the emitting subsystem.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names a lifecycle or domain event.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// UserID creates an attribute for user identifiers.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// SessionID creates an attribute for session-record identifiers.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Email creates an attribute for email addresses.
func Email(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("email", addr)
}
