package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the lock object's JSON payload.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DistributedLock implements leader election over R2 conditional writes.
// Only the lock holder rebuilds and uploads index snapshots; other instances
// follow by polling.
type DistributedLock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string // ETag of the lock object we hold
}

// NewDistributedLock creates a lock instance with a fresh owner identity.
func NewDistributedLock(client *Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
	}
}

// Acquire attempts to take the lock. Returns (false, nil) when another live
// holder exists; an expired lock is stolen with a conditional replace.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	payload, err := l.marshalInfo()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}

	created, etag, err := l.client.PutObjectIfNotExists(ctx, l.key, bytes.NewReader(payload), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	expired, oldEtag, err := l.checkExpired(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock: check expired: %w", err)
	}
	if !expired {
		return false, nil
	}

	payload, err = l.marshalInfo()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	stolen, newEtag, err := l.client.PutObjectIfMatch(ctx, l.key, bytes.NewReader(payload), oldEtag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: steal: %w", err)
	}
	if stolen {
		l.etag = newEtag
		return true, nil
	}
	return false, nil
}

// Renew extends the TTL while we still own the lock.
// Returns (false, nil) when the lock was lost.
func (l *DistributedLock) Renew(ctx context.Context) (bool, error) {
	if l.etag == "" {
		return false, nil
	}

	payload, err := l.marshalInfo()
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}

	updated, newEtag, err := l.client.PutObjectIfMatch(ctx, l.key, bytes.NewReader(payload), l.etag, "application/json")
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	if !updated {
		return false, nil
	}
	l.etag = newEtag
	return true, nil
}

// Release deletes the lock object if we still own it. Releasing a lock that
// was stolen or already deleted is a no-op.
func (l *DistributedLock) Release(ctx context.Context) error {
	body, _, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("release lock: verify: %w", err)
	}

	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return fmt.Errorf("release lock: read: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Corrupt lock object, clear it
		return l.client.DeleteObject(ctx, l.key)
	}
	if info.Owner != l.ownerID {
		return nil
	}
	return l.client.DeleteObject(ctx, l.key)
}

// OwnerID returns this instance's lock identity.
func (l *DistributedLock) OwnerID() string {
	return l.ownerID
}

func (l *DistributedLock) marshalInfo() ([]byte, error) {
	return json.Marshal(LockInfo{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
}

// checkExpired reads the current lock and reports whether it is past its
// TTL, along with the ETag needed to steal it.
func (l *DistributedLock) checkExpired(ctx context.Context) (bool, string, error) {
	body, etag, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, "", nil
		}
		return false, "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Unreadable lock payloads are treated as expired
		return true, etag, nil
	}
	return time.Now().After(info.ExpiresAt), etag, nil
}
