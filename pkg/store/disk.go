package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/finmcp/gateway/pkg/logger"
)

// diskEntry is the JSON-serializable form of an entry; []byte values are
// base64-encoded by encoding/json automatically.
type diskEntry struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix seconds, 0 = no expiry
}

// DiskStore wraps a MemoryStore and persists each collection to its own
// JSON file under dir, guarded by a file lock so concurrent processes
// don't corrupt the snapshot. It loads existing snapshots at construction
// and saves the affected collection after every mutating call.
type DiskStore struct {
	mem *MemoryStore
	dir string
}

// NewDiskStore creates (if needed) dir and loads any existing per-collection
// snapshots into a fresh MemoryStore.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create storage dir: %w", err)
	}

	d := &DiskStore{mem: NewMemoryStore(), dir: dir}
	for _, c := range []Collection{Clients, AuthCodes, AccessTokens, Users, CredentialIndex} {
		if err := d.load(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *DiskStore) path(collection Collection) string {
	return filepath.Join(d.dir, string(collection)+".json")
}

func (d *DiskStore) lockPath(collection Collection) string {
	return d.path(collection) + ".lock"
}

func (d *DiskStore) load(collection Collection) error {
	lock := flock.New(d.lockPath(collection))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("store: lock %s: %w", collection, err)
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(d.path(collection))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s snapshot: %w", collection, err)
	}
	if len(raw) == 0 {
		return nil
	}

	var onDisk map[string]diskEntry
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return fmt.Errorf("store: decode %s snapshot: %w", collection, err)
	}

	entries := make(map[string]entry, len(onDisk))
	for k, v := range onDisk {
		e := entry{value: v.Value}
		if v.ExpiresAt != 0 {
			e.expiresAt = time.Unix(v.ExpiresAt, 0)
		}
		entries[k] = e
	}
	d.mem.restore(collection, entries)
	return nil
}

func (d *DiskStore) save(collection Collection) error {
	lock := flock.New(d.lockPath(collection))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("store: lock %s: %w", collection, err)
	}
	defer lock.Unlock()

	snap := d.mem.snapshot(collection)
	onDisk := make(map[string]diskEntry, len(snap))
	for k, v := range snap {
		de := diskEntry{Value: v.value}
		if !v.expiresAt.IsZero() {
			de.ExpiresAt = v.expiresAt.Unix()
		}
		onDisk[k] = de
	}

	raw, err := json.Marshal(onDisk)
	if err != nil {
		return fmt.Errorf("store: encode %s snapshot: %w", collection, err)
	}

	tmp := d.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("store: write %s snapshot: %w", collection, err)
	}
	if err := os.Rename(tmp, d.path(collection)); err != nil {
		return fmt.Errorf("store: commit %s snapshot: %w", collection, err)
	}
	return nil
}

func (d *DiskStore) Put(ctx context.Context, collection Collection, key string, value []byte, ttl time.Duration) error {
	if err := d.mem.Put(ctx, collection, key, value, ttl); err != nil {
		return err
	}
	return d.persistOrWarn(collection)
}

func (d *DiskStore) Get(ctx context.Context, collection Collection, key string) ([]byte, bool, error) {
	return d.mem.Get(ctx, collection, key)
}

func (d *DiskStore) Delete(ctx context.Context, collection Collection, key string) error {
	if err := d.mem.Delete(ctx, collection, key); err != nil {
		return err
	}
	return d.persistOrWarn(collection)
}

func (d *DiskStore) Consume(ctx context.Context, collection Collection, key string) ([]byte, bool, error) {
	value, ok, err := d.mem.Consume(ctx, collection, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if perr := d.persistOrWarn(collection); perr != nil {
			return value, ok, perr
		}
	}
	return value, ok, nil
}

func (d *DiskStore) persistOrWarn(collection Collection) error {
	if err := d.save(collection); err != nil {
		logger.Errorw("failed to persist store snapshot", "collection", collection, "error", err)
		return err
	}
	return nil
}
