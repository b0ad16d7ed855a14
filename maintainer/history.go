// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package maintainer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/zkvm"
)

const (
	entryCacheSize = 1024

	heightKeyByte byte = iota
	genesisKeyByte
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonPrefix = []byte("singleton")
	entryPrefix     = []byte("entry")

	heightKey  = []byte{heightKeyByte}
	genesisKey = []byte{genesisKeyByte}

	errNoSuchEntry = errors.New("no history entry at height")

	_ History = &history{}
)

// Entry is one accepted transition.
type Entry struct {
	Kind programs.Kind `serialize:"true"`
	// Receipt is the encoded receipt of the run.
	Receipt []byte `serialize:"true"`
	// StateDigest is the digest of the maintainer's state after the entry.
	StateDigest ids.ID `serialize:"true"`
}

// ParseReceipt decodes the entry's receipt.
func (e *Entry) ParseReceipt() (*zkvm.Receipt, error) {
	return zkvm.ParseReceipt(e.Receipt)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	return &Entry{
		Kind:        e.Kind,
		Receipt:     append([]byte(nil), e.Receipt...),
		StateDigest: e.StateDigest,
	}
}

// History is the append-only log of the receipts a maintainer produced.
// Appends are pending until Commit; Abort drops them.
type History interface {
	Append(entry *Entry) (uint64, error)
	Get(height uint64) (*Entry, error)
	// Height is the number of entries, pending ones included.
	Height() (uint64, error)
	// Genesis returns the state digest anchored by the first Init entry.
	Genesis() (ids.ID, bool, error)

	Commit() error
	Abort()
	Close() error
}

type history struct {
	baseDB      *versiondb.Database
	singletonDB database.Database
	entryDB     database.Database

	entryCache cache.Cacher
}

// NewHistory returns a History stored in [db].
func NewHistory(db database.Database) History {
	baseDB := versiondb.New(db)
	return &history{
		baseDB:      baseDB,
		singletonDB: prefixdb.New(singletonPrefix, baseDB),
		entryDB:     prefixdb.New(entryPrefix, baseDB),
		entryCache:  &cache.LRU{Size: entryCacheSize},
	}
}

func (h *history) Append(entry *Entry) (uint64, error) {
	height, err := h.Height()
	if err != nil {
		return 0, err
	}
	bytes, err := ledger.Marshal(entry)
	if err != nil {
		return 0, err
	}
	if err := h.entryDB.Put(heightToKey(height), bytes); err != nil {
		return 0, err
	}
	if err := h.singletonDB.Put(heightKey, heightToKey(height+1)); err != nil {
		return 0, err
	}

	if entry.Kind == programs.Init {
		has, err := h.singletonDB.Has(genesisKey)
		if err != nil {
			return 0, err
		}
		if !has {
			if err := h.singletonDB.Put(genesisKey, entry.StateDigest[:]); err != nil {
				return 0, err
			}
		}
	}
	return height, nil
}

func (h *history) Get(height uint64) (*Entry, error) {
	if entryIntf, ok := h.entryCache.Get(height); ok {
		return entryIntf.(*Entry).Clone(), nil
	}

	bytes, err := h.entryDB.Get(heightToKey(height))
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %d", errNoSuchEntry, height)
	}
	if err != nil {
		return nil, err
	}
	entry := &Entry{}
	if err := ledger.Unmarshal(bytes, entry); err != nil {
		return nil, err
	}
	h.entryCache.Put(height, entry)
	return entry.Clone(), nil
}

func (h *history) Height() (uint64, error) {
	bytes, err := h.singletonDB.Get(heightKey)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(bytes), nil
}

func (h *history) Genesis() (ids.ID, bool, error) {
	bytes, err := h.singletonDB.Get(genesisKey)
	if err == database.ErrNotFound {
		return ids.Empty, false, nil
	}
	if err != nil {
		return ids.Empty, false, err
	}
	digest, err := ids.ToID(bytes)
	return digest, err == nil, err
}

// Commit commits pending operations to the underlying database.
func (h *history) Commit() error {
	return h.baseDB.Commit()
}

// Abort drops pending operations.
func (h *history) Abort() {
	h.baseDB.Abort()
	h.entryCache.Flush()
}

// Close closes the underlying base database.
func (h *history) Close() error {
	return h.baseDB.Close()
}

func heightToKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}
