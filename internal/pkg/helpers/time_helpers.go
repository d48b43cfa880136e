package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returning fallback when it is empty or malformed.
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	if durationStr == "" {
		return fallback
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("duration", durationStr).Dur("fallback", fallback).Msg("Failed to parse duration, using fallback")
		return fallback
	}
	return duration
}
