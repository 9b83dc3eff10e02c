package types

import "time"

const (
	// DefaultRateWindow is the fixed rate-limit window applied per caller.
	DefaultRateWindow = 60 * time.Second
	// DefaultRateMax is the number of invocations allowed per window.
	DefaultRateMax = 30

	// MaxSerializedLen caps serialized args/results in invocation records.
	MaxSerializedLen = 4000

	// DefaultRecentLimit is the page size for the recent-invocations view.
	DefaultRecentLimit = 25
	// MaxRecentLimit bounds caller-supplied limits on history queries.
	MaxRecentLimit = 100
)
