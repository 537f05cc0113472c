// Package config carries the engine-relevant settings only: recurrence
// horizon, sync retention, truncation limits, and the storage backend
// selection. HTTP listener, LDAP directory, and auth settings are out of
// scope (they back non-goal features) and are not modeled here. Same
// getenv-with-default loader shape as the teacher's internal/config.
package config

import (
	"os"
	"strconv"
	"time"
)

// StorageConfig selects and configures the C6 Store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string
	DSN     string
}

// Config holds every engine-tunable setting this module reads, with no
// HTTP/LDAP/auth fields (those configure non-goal features).
type Config struct {
	Storage StorageConfig

	// RecurrenceHorizon bounds how far into the future CalOccurrence
	// rows are materialized for an unbounded RRULE.
	RecurrenceHorizon time.Duration

	// TombstoneRetention is the minimum time a Tombstone is kept before
	// it becomes eligible for Store.SweepTombstones. The write path does
	// not call SweepTombstones itself.
	TombstoneRetention time.Duration

	// SyncCollectionTruncationLimit bounds the number of changes
	// returned per sync-collection REPORT page before Truncated (507)
	// with DAV:number-of-matches-within-limits is signaled.
	SyncCollectionTruncationLimit int

	// MaxICSBytes / MaxVCFBytes bound PUT body size per content type.
	MaxICSBytes int64
	MaxVCFBytes int64

	// DefaultCalendarColor / DefaultTimezone seed MKCALENDAR when the
	// client doesn't supply them.
	DefaultCalendarColor string
	DefaultTimezone      string

	// WriteRetryAttempts is loaded from WRITE_RETRY_ATTEMPTS. Nothing in
	// this module reads it: WritePath.Put makes a single attempt and
	// returns a serialization failure as an error without retrying.
	WriteRetryAttempts int

	LogLevel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load builds a Config from the environment, defaulting every field per
// SPEC_FULL.md §2.3/§11.
func Load() (*Config, error) {
	return &Config{
		Storage: StorageConfig{
			Backend: getenv("STORAGE_BACKEND", "sqlite"),
			DSN:     getenv("STORAGE_DSN", "./data/davcore.db"),
		},
		RecurrenceHorizon:             getenvDuration("RECURRENCE_HORIZON", 2*365*24*time.Hour),
		TombstoneRetention:             getenvDuration("TOMBSTONE_RETENTION", 7*24*time.Hour),
		SyncCollectionTruncationLimit:  getenvInt("SYNC_TRUNCATION_LIMIT", 1000),
		MaxICSBytes:                    getenvInt64("MAX_ICS_BYTES", 1<<20),
		MaxVCFBytes:                    getenvInt64("MAX_VCF_BYTES", 1<<19),
		DefaultCalendarColor:           getenv("DEFAULT_CALENDAR_COLOR", "#4A90D9"),
		DefaultTimezone:                getenv("DEFAULT_TIMEZONE", "UTC"),
		WriteRetryAttempts:             getenvInt("WRITE_RETRY_ATTEMPTS", 3),
		LogLevel:                       getenv("LOG_LEVEL", "info"),
	}, nil
}
