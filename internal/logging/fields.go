package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService   = "service"
	FieldCharacter = "character"
	FieldVictim    = "victim"
	FieldKiller    = "killer"
	FieldEnemy     = "enemy"
	FieldChannel   = "channel"
	FieldRun       = "run_id"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Service returns a slog attribute identifying the emitting binary.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Character returns a slog attribute for a character name.
func Character(name string) slog.Attr {
	return slog.String(FieldCharacter, name)
}

// Victim returns a slog attribute for a kill-match victim.
func Victim(name string) slog.Attr {
	return slog.String(FieldVictim, name)
}

// Killer returns a slog attribute for the raw killer text.
func Killer(text string) slog.Attr {
	return slog.String(FieldKiller, text)
}

// Enemy returns a slog attribute for an enemy's character id.
func Enemy(characterID int64) slog.Attr {
	return slog.Int64(FieldEnemy, characterID)
}

// Channel returns a slog attribute for a notification channel type.
func Channel(kind string) slog.Attr {
	return slog.String(FieldChannel, kind)
}

// RunID returns a slog attribute for a correlation run identifier.
func RunID(id string) slog.Attr {
	return slog.String(FieldRun, id)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}
