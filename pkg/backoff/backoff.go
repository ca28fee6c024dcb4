// Package backoff provides exponential backoff calculation.
package backoff

import "time"

// Policy describes an exponential backoff curve. The zero value disables
// waiting entirely, which callers use to preserve busy-poll behavior.
type Policy struct {
	Initial time.Duration // wait after the first failed attempt
	Max     time.Duration // cap for all subsequent waits
}

// Default returns the delivery retry policy used across the client.
func Default() Policy {
	return Policy{
		Initial: 100 * time.Millisecond,
		Max:     5 * time.Second,
	}
}

// Duration returns the wait before the given attempt. Attempt 1 waits
// Initial, attempt 2 waits twice that, and so on up to Max.
func (p Policy) Duration(attempt int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	limit := p.Max
	if limit <= 0 {
		limit = p.Initial
	}

	d := p.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}
