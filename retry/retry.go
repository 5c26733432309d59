// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry runs operations with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// Do retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func Do(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}
		if err := Wait(ctx, Backoff(baseDelay, attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// Backoff returns the delay after the given attempt: baseDelay * 2^(attempt-1).
func Backoff(baseDelay time.Duration, attempt int) time.Duration {
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Wait sleeps for delay or until ctx is done.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
