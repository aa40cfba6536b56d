package cart

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// SchemaVersion is the current persisted cart format. Version 1 was a single
// store's cart persisted bare, without a version or the per-store map.
const SchemaVersion = "2.0"

// Storage persists the serialized multi-store cart blob. Load returns
// (nil, nil) when nothing has been persisted yet.
type Storage interface {
	Load() ([]byte, error)
	Save(blob []byte) error
}

// envelope is the versioned on-disk shape.
type envelope struct {
	Version string               `json:"version"`
	Stores  map[string]StoreCart `json:"stores"`
}

// legacyCart is the pre-2.0 persisted shape: one store's items, no version
// field, no per-store map.
type legacyCart struct {
	StoreID string `json:"storeId"`
	Items   []Item `json:"items"`
}

// load decodes the persisted blob into the aggregator, migrating legacy
// single-store blobs into the multi-store envelope and re-persisting the
// result. Corrupt or unknown input fails open to an empty cart.
func (a *Aggregator) load() {
	blob, err := a.storage.Load()
	if err != nil || len(blob) == 0 {
		if err != nil {
			a.logger.Printf("cart: load failed, starting empty: %v", err)
		}
		return
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err == nil && env.Version == SchemaVersion {
		for id, sc := range env.Stores {
			if len(sc.Items) == 0 {
				continue
			}
			copied := sc
			a.stores[id] = &copied
		}
		return
	}

	var legacy legacyCart
	if err := json.Unmarshal(blob, &legacy); err == nil && legacy.StoreID != "" && len(legacy.Items) > 0 {
		// legacy blobs predate checkout keys; mint one on migration
		a.stores[legacy.StoreID] = &StoreCart{StoreID: legacy.StoreID, Items: legacy.Items, CheckoutKey: uuid.New().String()}
		a.logger.Printf("cart: migrated legacy blob for store %s", legacy.StoreID)
		if err := a.storage.Save(a.encodeLocked()); err != nil {
			a.logger.Printf("cart: re-persist after migration failed: %v", err)
		}
		return
	}

	a.logger.Printf("cart: unrecognized persisted blob, starting empty")
}

// encodeLocked serializes the current state. Callers hold a.mu (or run before
// the aggregator is shared).
func (a *Aggregator) encodeLocked() []byte {
	env := envelope{Version: SchemaVersion, Stores: make(map[string]StoreCart, len(a.stores))}
	for id, sc := range a.stores {
		env.Stores[id] = *sc
	}
	blob, err := json.Marshal(env)
	if err != nil {
		a.logger.Printf("cart: encode failed: %v", err)
		return nil
	}
	return blob
}

// persistLocked hands the current state to the background persister without
// blocking the mutation. Only the newest pending blob is kept, so the last
// writer always eventually wins.
func (a *Aggregator) persistLocked() {
	blob := a.encodeLocked()
	if blob == nil {
		return
	}
	for {
		select {
		case a.saves <- blob:
			return
		default:
		}
		select {
		case <-a.saves:
		default:
		}
	}
}

func (a *Aggregator) persistLoop() {
	defer a.wg.Done()
	for {
		select {
		case blob := <-a.saves:
			if err := a.storage.Save(blob); err != nil {
				a.logger.Printf("cart: save failed: %v", err)
			}
		case <-a.done:
			return
		}
	}
}

// MemoryStorage is an in-process Storage, used in tests and for ephemeral
// sessions.
type MemoryStorage struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, nil
	}
	out := make([]byte, len(m.blob))
	copy(out, m.blob)
	return out, nil
}

func (m *MemoryStorage) Save(blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = make([]byte, len(blob))
	copy(m.blob, blob)
	return nil
}

// FileStorage persists the cart blob to a single file, written atomically via
// a temp file rename.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() ([]byte, error) {
	blob, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return blob, err
}

func (f *FileStorage) Save(blob []byte) error {
	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
