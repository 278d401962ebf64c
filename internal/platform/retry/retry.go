// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package retry provides a single bounded-retry primitive shared by every
outbound HTTP client in this service: the embedding client, the TMDB/TPDB
enrichment clients, the vector store's raw-HTTP fallback, and the Bitmagnet
GraphQL client.

Unlike the exponential backoff used for model downloads in the reference
embedding client this is grounded on, every caller here needs linear backoff
over a fixed set of transient HTTP statuses — so the math is swapped but the
attempt-loop shape is kept.
*/
package retry

import (
	"context"
	"fmt"
	"time"
)

// TransientStatus is the fixed set of HTTP statuses considered transient
// across every retrying client in this service.
var TransientStatus = map[int]bool{
	502: true,
	503: true,
	504: true,
}

// Config controls the bounded linear-backoff retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number (1-indexed) for the
	// linear backoff: delay = BaseDelay * attempt.
	BaseDelay time.Duration
}

// DefaultConfig is the spec's "3 attempts, 0.3s * attempt" linear backoff.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: 300 * time.Millisecond}
}

// TransientError wraps an error observed from a transient-status response.
// Callers use this to let Do distinguish "retry" from "fail fast".
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error (status %d): %v", e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether a status code is in the shared transient set.
func IsTransient(statusCode int) bool {
	return TransientStatus[statusCode]
}

// Do runs fn up to cfg.MaxAttempts times. fn should return a *TransientError
// for statuses in TransientStatus and a plain error otherwise; plain errors
// abort the loop immediately (fail fast), matching the "422 is fatal" /
// "502-504 is transient" split documented for the Bitmagnet client.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		var transient *TransientError
		if !asTransient(err, &transient) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.BaseDelay * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retry: exhausted %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func asTransient(err error, target **TransientError) bool {
	te, ok := err.(*TransientError)
	if ok {
		*target = te
	}
	return ok
}
