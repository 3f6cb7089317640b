// Package lock implements the single-writer lease that serializes mutations
// of a task store shared by several processes.
package lock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abatilo/triage/internal/blob"
	triageerrors "github.com/abatilo/triage/internal/errors"
)

const leaseFile = "writer.json"

// Lease records who currently holds write access.
type Lease struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the lease may be taken over at now.
func (l *Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Load reads the current lease.
func Load(ctx context.Context, backend blob.Backend) (*Lease, error) {
	l, _, err := load(ctx, backend)
	return l, err
}

func load(ctx context.Context, backend blob.Backend) (*Lease, []byte, error) {
	data, err := backend.Read(ctx, leaseFile)
	if err != nil {
		return nil, nil, err
	}

	var l Lease
	if unmarshalErr := json.Unmarshal(data, &l); unmarshalErr != nil {
		return nil, data, unmarshalErr
	}
	return &l, data, nil
}

func save(ctx context.Context, backend blob.Backend, l *Lease) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return backend.Write(ctx, leaseFile, data)
}

// Claim attempts to take the lease for owner. Returns (claimed, existingOwner, error).
// If another owner holds an unexpired lease, returns (false, holder, nil).
// Re-claiming an owned lease extends it. An expired or torn lease is removed
// and the create retried once; of several concurrent claimants only the one
// whose create lands wins.
func Claim(ctx context.Context, backend blob.Backend, owner string, ttl time.Duration) (bool, string, error) {
	now := time.Now().UTC()
	l := &Lease{Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(ttl)}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return false, "", err
	}

	holder := ""
	for range 2 {
		err = backend.Create(ctx, leaseFile, data)
		if err == nil {
			return true, "", nil
		}
		if !errors.Is(err, blob.ErrExists) {
			return false, "", err
		}

		existing, raw, loadErr := load(ctx, backend)
		switch {
		case loadErr == nil:
			if existing.Owner == owner {
				if saveErr := save(ctx, backend, l); saveErr != nil {
					return false, "", saveErr
				}
				return true, "", nil
			}
			if !existing.Expired(now) {
				return false, existing.Owner, nil
			}
			holder = existing.Owner
		case errors.Is(loadErr, blob.ErrNotFound):
			// Released between the create and the read.
			continue
		default:
			var syntaxErr *json.SyntaxError
			if !errors.As(loadErr, &syntaxErr) {
				return false, "", loadErr
			}
			// A torn lease file is treated as free.
		}

		if takeErr := removeStale(ctx, backend, raw); takeErr != nil {
			return false, "", takeErr
		}
	}
	return false, holder, nil
}

// removeStale deletes the lease only while it still holds the bytes that were
// judged stale, so a fresh lease written by a faster claimant survives.
func removeStale(ctx context.Context, backend blob.Backend, stale []byte) error {
	current, err := backend.Read(ctx, leaseFile)
	if errors.Is(err, blob.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.Equal(current, stale) {
		return nil
	}
	if err = backend.Delete(ctx, leaseFile); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return err
	}
	return nil
}

// Release removes the lease if owner holds it. Returns true if released.
func Release(ctx context.Context, backend blob.Backend, owner string) (bool, error) {
	existing, loadErr := Load(ctx, backend)
	if errors.Is(loadErr, blob.ErrNotFound) {
		return false, nil
	}
	if loadErr != nil {
		return false, loadErr
	}
	if existing.Owner != owner {
		return false, nil
	}

	if err := backend.Delete(ctx, leaseFile); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return false, err
	}
	return true, nil
}

// WithLease runs fn while holding the lease and releases it afterwards.
func WithLease(ctx context.Context, backend blob.Backend, owner string, ttl time.Duration, fn func() error) error {
	claimed, holder, err := Claim(ctx, backend, owner, ttl)
	if err != nil {
		return fmt.Errorf("failed to claim writer lease: %w", err)
	}
	if !claimed {
		since := time.Time{}
		if l, loadErr := Load(ctx, backend); loadErr == nil {
			since = l.AcquiredAt
		}
		return triageerrors.WriterLockedError{Holder: holder, Since: since}
	}

	fnErr := fn()
	if _, releaseErr := Release(ctx, backend, owner); releaseErr != nil && fnErr == nil {
		return fmt.Errorf("failed to release writer lease: %w", releaseErr)
	}
	return fnErr
}

// Break removes the lease whoever holds it. Returns false if there was none.
func Break(ctx context.Context, backend blob.Backend) (bool, error) {
	err := backend.Delete(ctx, leaseFile)
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
