package cache

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/fystack/wallet-aggregator/pkg/common/logger"
)

// AllowlistStore holds the long-TTL top-token allow-lists, one set of
// lower-cased contract addresses per chain. It is memory-first; when a data
// dir is configured the sets are also persisted to badger (with badger's own
// entry TTL) so a restart does not cost an upstream listings call.
type AllowlistStore struct {
	mem *Store[map[string]struct{}]
	db  *badger.DB // nil when persistence is disabled
	ttl time.Duration
}

func NewAllowlistStore(dataDir string, ttl time.Duration) (*AllowlistStore, error) {
	s := &AllowlistStore{
		mem: New[map[string]struct{}](ttl),
		ttl: ttl,
	}
	if dataDir == "" {
		return s, nil
	}

	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

// Get returns the allow-list for chainID, or a miss. A corrupt or expired
// persisted entry is treated as a miss, never an error.
func (s *AllowlistStore) Get(chainID string) (map[string]struct{}, bool) {
	if set, ok := s.mem.Get(chainID); ok {
		return set, true
	}
	if s.db == nil {
		return nil, false
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chainID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}

	var addrs []string
	if err := json.Unmarshal(raw, &addrs); err != nil {
		logger.Warn("Discarding corrupt persisted allow-list", "chain", chainID, "err", err)
		return nil, false
	}

	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	s.mem.Put(chainID, set)
	return set, true
}

// Put stores the allow-list for chainID in memory and, when enabled, badger.
func (s *AllowlistStore) Put(chainID string, set map[string]struct{}) {
	s.mem.Put(chainID, set)
	if s.db == nil {
		return
	}

	addrs := make([]string, 0, len(set))
	for a := range set {
		addrs = append(addrs, a)
	}
	raw, err := json.Marshal(addrs)
	if err != nil {
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(chainID), raw).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logger.Warn("Failed to persist allow-list", "chain", chainID, "err", err)
	}
}

func (s *AllowlistStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
