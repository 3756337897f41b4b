package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Bucket is a generic holder that stores data as well
// as references to secondary indexes and sequences.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
type Bucket struct {
	name    string
	prefix  []byte
	proto   reflect.Type
	indexes map[string]Index
}

// NewBucket creates a bucket to store data. All models stored in the bucket
// are of the same type as proto.
func NewBucket(name string, proto Model) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	tp := reflect.TypeOf(proto)
	if tp.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("bucket %s: model must be a pointer, got %T", name, proto))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  tp.Elem(),
	}
}

// Name returns the name of the bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consequetive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get one element. Returns nil if the key is not present.
func (b Bucket) Get(db ledger.ReadOnlyKVStore, key []byte) (Object, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "bucket read")
	}
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

// Parse takes a key and value data and reconstructs the object this Bucket
// would return.
func (b Bucket) Parse(key, value []byte) (Object, error) {
	m := reflect.New(b.proto).Interface().(Model)
	if err := m.Unmarshal(value); err != nil {
		return nil, errors.Wrapf(errors.ErrSchema, "%s bucket: %s", b.name, err)
	}
	return NewSimpleObj(key, m), nil
}

// Save will write a model, it must be of the same type as proto
func (b Bucket) Save(db ledger.KVStore, obj Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	if tp := reflect.TypeOf(obj.Value()); tp.Elem() != b.proto {
		return errors.Wrapf(errors.ErrType, "%s bucket cannot store %s", b.name, tp)
	}
	bz, err := obj.Value().Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	if err := b.updateIndexes(db, obj.Key(), obj); err != nil {
		return err
	}
	return db.Set(b.DBKey(obj.Key()), bz)
}

// Delete will remove the value at a key
func (b Bucket) Delete(db ledger.KVStore, key []byte) error {
	if err := b.updateIndexes(db, key, nil); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

func (b Bucket) updateIndexes(db ledger.KVStore, key []byte, obj Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && obj == nil {
		return nil
	}
	for _, idx := range b.indexes {
		if err := idx.Update(db, prev, obj); err != nil {
			return err
		}
	}
	return nil
}

// Sequence returns a Sequence by name
func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}

// WithIndex returns a copy of this bucket with given index,
// panics if it an index with that name is already registered.
//
// Designed to be chained.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("Index %s registered twice", name))
	}
	indexes := make(map[string]Index, len(b.indexes)+1)
	for n, i := range b.indexes {
		indexes[n] = i
	}
	indexes[name] = NewIndex(b.name+"_"+name, indexer, unique)
	b.indexes = indexes
	return b
}

// GetIndexed queries the named index for the given key
func (b Bucket) GetIndexed(db ledger.ReadOnlyKVStore, name string, key []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, name)
	}
	refs, err := idx.Keys(db, key)
	if err != nil {
		return nil, err
	}
	objs := make([]Object, 0, len(refs))
	for _, ref := range refs {
		obj, err := b.Get(db, ref)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "index %q refers to a missing entity", name)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}
