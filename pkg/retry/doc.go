// Package retry provides retry logic with pluggable backoff strategies.
//
// The target site answers transient failures best with patience, so the
// default policy is five attempts separated by linearly growing delays
// (10s, 20s, 30s, 40s). Callers can swap in constant backoff or tighter
// attempt ceilings per operation.
//
//	err := retry.Do(func() error {
//		return client.Ping()
//	}, retry.DefaultConfig())
package retry
