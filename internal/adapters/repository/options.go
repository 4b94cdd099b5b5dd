package repository

import "time"

type settings struct {
	now func() time.Time
}

func defaultSettings() settings {
	return settings{now: func() time.Time { return time.Now().UTC() }}
}

// Option applies a configuration option to a Store implementation.
type Option func(*settings)

// WithClock sets the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
