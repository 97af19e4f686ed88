package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Snapshot is one versioned, serialized copy of a store.
type Snapshot struct {
	Version int
	Data    []byte
}

// SnapshotBackend is the key-value substrate workspaces are persisted to.
// Load returns (nil, nil) when nothing has been saved under the key yet.
type SnapshotBackend interface {
	Load(ctx context.Context, accountID uint, key string) (*Snapshot, error)
	Save(ctx context.Context, accountID uint, key string, snap Snapshot) error
}

// persistable is implemented by every store. restore receives the stored
// version and must migrate older layouts forward.
type persistable interface {
	snapshotKey() string
	snapshotVersion() int
	snapshot() ([]byte, error)
	restore(data []byte, version int) error
}

func restoreFrom(ctx context.Context, backend SnapshotBackend, accountID uint, p persistable) error {
	snap, err := backend.Load(ctx, accountID, p.snapshotKey())
	if err != nil {
		return fmt.Errorf("load %s: %w", p.snapshotKey(), err)
	}
	if snap == nil {
		return nil
	}
	if snap.Version > p.snapshotVersion() {
		return fmt.Errorf("load %s: stored version %d is newer than %d", p.snapshotKey(), snap.Version, p.snapshotVersion())
	}
	if err := p.restore(snap.Data, snap.Version); err != nil {
		return fmt.Errorf("restore %s (v%d): %w", p.snapshotKey(), snap.Version, err)
	}
	return nil
}

func saveTo(ctx context.Context, backend SnapshotBackend, accountID uint, p persistable) error {
	data, err := p.snapshot()
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.snapshotKey(), err)
	}
	if err := backend.Save(ctx, accountID, p.snapshotKey(), Snapshot{Version: p.snapshotVersion(), Data: data}); err != nil {
		return fmt.Errorf("save %s: %w", p.snapshotKey(), err)
	}
	return nil
}

// decodeSnapshot unmarshals data into v, treating an empty payload as empty state.
func decodeSnapshot(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// MemoryBackend keeps snapshots in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snaps: make(map[string]Snapshot)}
}

func (m *MemoryBackend) Load(_ context.Context, accountID uint, key string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[memoryKey(accountID, key)]
	if !ok {
		return nil, nil
	}
	data := make([]byte, len(snap.Data))
	copy(data, snap.Data)
	return &Snapshot{Version: snap.Version, Data: data}, nil
}

func (m *MemoryBackend) Save(_ context.Context, accountID uint, key string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make([]byte, len(snap.Data))
	copy(data, snap.Data)
	m.snaps[memoryKey(accountID, key)] = Snapshot{Version: snap.Version, Data: data}
	return nil
}

func memoryKey(accountID uint, key string) string {
	return fmt.Sprintf("%d/%s", accountID, key)
}
