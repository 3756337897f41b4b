package store

import (
	"github.com/refit-labs/ledger/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

var _ KVStore = (*LevelDB)(nil)

// OpenLevelDB creates or opens a LevelDB database at the specified path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	return &LevelDB{db: db}, nil
}

// MemLevelDB returns a LevelDB instance that keeps all data in memory.
func MemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open memory storage: %s", err)
	}
	return &LevelDB{db: db}, nil
}

// Close closes the database connection.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Get returns nil if the key does not exist.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

func (l *LevelDB) Set(key, value []byte) error {
	if err := l.db.Put(key, value, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (l *LevelDB) Delete(key []byte) error {
	if err := l.db.Delete(key, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (l *LevelDB) Iterator(start, end []byte) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &levelIterator{it: it}, nil
}

func (l *LevelDB) ReverseIterator(start, end []byte) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &levelIterator{it: it, reverse: true}, nil
}

// NewBatch returns a batch that is written to the database atomically.
func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, b: new(leveldb.Batch)}
}

type levelBatch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *levelBatch) Set(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *levelBatch) Write() error {
	if err := b.db.Write(b.b, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	b.b.Reset()
	return nil
}

func (b *levelBatch) Reset() {
	b.b.Reset()
}

type levelIterator struct {
	it      iterator.Iterator
	reverse bool
	started bool
}

func (i *levelIterator) Next() ([]byte, []byte, error) {
	var ok bool
	switch {
	case !i.started && i.reverse:
		ok = i.it.Last()
	case !i.started:
		ok = i.it.First()
	case i.reverse:
		ok = i.it.Prev()
	default:
		ok = i.it.Next()
	}
	i.started = true

	if !ok {
		if err := i.it.Error(); err != nil {
			return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return nil, nil, errors.ErrIteratorDone
	}
	// The iterator reuses its buffers.
	key := append([]byte(nil), i.it.Key()...)
	value := append([]byte(nil), i.it.Value()...)
	return key, value, nil
}

func (i *levelIterator) Release() {
	i.it.Release()
}
