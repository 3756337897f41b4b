package orm

import (
	"bytes"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

// Index is a secondary index kept in sync with the bucket it belongs to.
type Index interface {
	// Name returns the name of this index.
	Name() string

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// save == nil means delete
	// both == nil is error
	// if both != nil and prev.Key() != save.Key() this is an error
	Update(db ledger.KVStore, prev Object, save Object) error

	// Keys returns all entity keys that were indexed under given value.
	Keys(db ledger.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

const compactIdxPrefix = "_i."

// Indexer calculates the secondary index key for a given object. Returning
// a nil key excludes the object from the index.
type Indexer func(Object) ([]byte, error)

// compactIndex stores all entities indexed under a single value as a set,
// serialized and stored under a single key. A unique index stores the
// primary key directly.
type compactIndex struct {
	name   string
	id     []byte
	unique bool
	index  Indexer
}

var _ Index = compactIndex{}

// NewIndex constructs an index.
// Indexer calculates the index for an object
// unique enforces a unique constraint on the index
func NewIndex(name string, indexer Indexer, unique bool) Index {
	return compactIndex{
		name:   name,
		id:     []byte(compactIdxPrefix + name + ":"),
		index:  indexer,
		unique: unique,
	}
}

func (i compactIndex) Name() string {
	return i.name
}

// indexKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

func (i compactIndex) Update(db ledger.KVStore, prev Object, save Object) error {
	switch {
	case prev == nil && save == nil:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case prev == nil:
		key, err := i.index(save)
		if err != nil || key == nil {
			return err
		}
		return i.insert(db, key, save.Key())
	case save == nil:
		key, err := i.index(prev)
		if err != nil || key == nil {
			return err
		}
		return i.remove(db, key, prev.Key())
	default:
		return i.move(db, prev, save)
	}
}

func (i compactIndex) move(db ledger.KVStore, prev Object, save Object) error {
	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrImmutable, "cannot modify the primary key of an object")
	}
	oldKey, err := i.index(prev)
	if err != nil {
		return err
	}
	newKey, err := i.index(save)
	if err != nil {
		return err
	}
	if bytes.Equal(oldKey, newKey) {
		return nil
	}
	if oldKey != nil {
		if err := i.remove(db, oldKey, prev.Key()); err != nil {
			return err
		}
	}
	if newKey != nil {
		return i.insert(db, newKey, save.Key())
	}
	return nil
}

func (i compactIndex) insert(db ledger.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return errors.Wrap(err, "index read")
	}

	if i.unique {
		if cur != nil && !bytes.Equal(cur, pk) {
			return errors.Wrapf(errors.ErrDuplicate, "unique index %q", i.name)
		}
		return db.Set(dbkey, pk)
	}

	var refs MultiRef
	if cur != nil {
		if err := refs.Unmarshal(cur); err != nil {
			return errors.Wrap(errors.ErrSchema, err.Error())
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	raw, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, raw)
}

func (i compactIndex) remove(db ledger.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return errors.Wrap(err, "index read")
	}
	if cur == nil {
		return errors.Wrapf(errors.ErrNotFound, "index %q entry", i.name)
	}

	if i.unique {
		return db.Delete(dbkey)
	}

	var refs MultiRef
	if err := refs.Unmarshal(cur); err != nil {
		return errors.Wrap(errors.ErrSchema, err.Error())
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if len(refs.Refs) == 0 {
		return db.Delete(dbkey)
	}
	raw, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, raw)
}

func (i compactIndex) Keys(db ledger.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	cur, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, errors.Wrap(err, "index read")
	}
	if cur == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{cur}, nil
	}
	var refs MultiRef
	if err := refs.Unmarshal(cur); err != nil {
		return nil, errors.Wrap(errors.ErrSchema, err.Error())
	}
	return refs.Refs, nil
}
