package moderation

import "time"

// Options tunes timeouts and caches of the moderation engine. Zero values
// take the defaults below.
type Options struct {
	// PlatformTimeout bounds every single platform call.
	PlatformTimeout time.Duration
	// PersistTimeout bounds store writes, including the message record.
	PersistTimeout time.Duration
	// LedgerAttempts is how many times a failed warn increment is tried.
	LedgerAttempts int
	// DedupeTTL and DedupeSize size the escalation idempotency cache.
	DedupeTTL  time.Duration
	DedupeSize int
	// RoleLookups bounds concurrent role checks for mentioned users.
	RoleLookups int
	// DefaultTimeout is used when a guild reaches the threshold without a
	// configured timeout duration.
	DefaultTimeout time.Duration

	now func() time.Time
}

const (
	defaultPlatformTimeout = 5 * time.Second
	defaultPersistTimeout  = 5 * time.Second
	defaultDedupeTTL       = 10 * time.Minute
	defaultDedupeSize      = 10000
	defaultRoleLookups     = 4
)

// DefaultMuteDuration applies when a guild has no timer configured.
const DefaultMuteDuration = 5 * time.Minute

func (o Options) withDefaults() Options {
	if o.PlatformTimeout <= 0 {
		o.PlatformTimeout = defaultPlatformTimeout
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = defaultPersistTimeout
	}
	if o.LedgerAttempts <= 0 {
		o.LedgerAttempts = 1
	}
	if o.DedupeTTL <= 0 {
		o.DedupeTTL = defaultDedupeTTL
	}
	if o.DedupeSize <= 0 {
		o.DedupeSize = defaultDedupeSize
	}
	if o.RoleLookups <= 0 {
		o.RoleLookups = defaultRoleLookups
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultMuteDuration
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}
