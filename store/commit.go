package store

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/refit-labs/ledger/errors"
)

var latestVersionKey = []byte("_commit:latest")

// CommitStore keeps the committed state of the ledger in a KVStore backend
// and tracks a version counter together with a digest of every write
// performed since the genesis.
type CommitStore struct {
	back    KVStore
	latest  CommitID
	pending hash.Hash
}

var _ CommitKVStore = (*CommitStore)(nil)

// NewCommitStore returns a commit store backed by the given KVStore. Use
// MemStore for tests and a LevelDB instance for persistence.
func NewCommitStore(back KVStore) *CommitStore {
	return &CommitStore{
		back:    back,
		pending: sha256.New(),
	}
}

// Get returns the value at last committed state.
func (c *CommitStore) Get(key []byte) ([]byte, error) {
	return c.back.Get(key)
}

// CacheWrap returns a scratch-pad for the next version. Writing it flushes
// all operations to the backend in one batch.
func (c *CommitStore) CacheWrap() KVCacheWrap {
	batch := &hashingBatch{Batch: c.back.NewBatch(), h: c.pending}
	return NewBTreeCacheWrap(c.back, batch)
}

// Commit closes the current version and returns its identifier.
func (c *CommitStore) Commit() (CommitID, error) {
	c.pending.Write(c.latest.Hash)
	next := CommitID{
		Version: c.latest.Version + 1,
		Hash:    c.pending.Sum(nil),
	}
	if err := c.back.Set(latestVersionKey, encodeCommitID(next)); err != nil {
		return CommitID{}, errors.Wrap(err, "save commit id")
	}
	c.latest = next
	c.pending.Reset()
	return next, nil
}

// LoadLatestVersion loads the latest persisted version.
func (c *CommitStore) LoadLatestVersion() error {
	raw, err := c.back.Get(latestVersionKey)
	if err != nil {
		return errors.Wrap(err, "load commit id")
	}
	if raw == nil {
		c.latest = CommitID{}
		return nil
	}
	id, err := decodeCommitID(raw)
	if err != nil {
		return err
	}
	c.latest = id
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (c *CommitStore) LatestVersion() (CommitID, error) {
	return c.latest, nil
}

func encodeCommitID(id CommitID) []byte {
	raw := make([]byte, 8, 8+len(id.Hash))
	binary.BigEndian.PutUint64(raw, uint64(id.Version))
	return append(raw, id.Hash...)
}

func decodeCommitID(raw []byte) (CommitID, error) {
	if len(raw) < 8 {
		return CommitID{}, errors.Wrap(errors.ErrDatabase, "malformed commit id")
	}
	return CommitID{
		Version: int64(binary.BigEndian.Uint64(raw[:8])),
		Hash:    append([]byte(nil), raw[8:]...),
	}, nil
}

// hashingBatch feeds every operation into the pending version digest when
// it is written. Operations of a discarded cache never reach the digest.
type hashingBatch struct {
	Batch
	h   hash.Hash
	ops []Op
}

func (b *hashingBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return b.Batch.Set(key, value)
}

func (b *hashingBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return b.Batch.Delete(key)
}

func (b *hashingBatch) Write() error {
	for _, op := range b.ops {
		b.h.Write([]byte{byte(op.kind)})
		writeLengthPrefixed(b.h, op.key)
		if op.kind == setKind {
			writeLengthPrefixed(b.h, op.value)
		}
	}
	b.ops = nil
	return b.Batch.Write()
}

func (b *hashingBatch) Reset() {
	b.ops = nil
	b.Batch.Reset()
}

func writeLengthPrefixed(h hash.Hash, data []byte) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	h.Write(size[:])
	h.Write(data)
}
