package orm

import (
	"reflect"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model type would not work for
// us. Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}

// ModelBucket is implemented by buckets that operates on Models rather than
// Objects.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists and
	// ErrNotFound otherwise.
	Has(db ledger.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database, creating or replacing the
	// entity stored under the key.
	Put(db ledger.KVStore, key []byte, m Model) error

	// Create saves given model in the database. It returns ErrDuplicate
	// if an entity with the same key already exists.
	Create(db ledger.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db ledger.KVStore, key []byte) error

	// ByIndex returns all objects that secondary index with given name and
	// given key maps to. Models are appended to the destination slice and
	// their primary keys are returned in the same order.
	ByIndex(db ledger.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.b = mb.b.WithIndex(name, indexer, unique)
	}
}

// NewModelBucket returns a ModelBucket instance storing models of the same
// type as given one under the bucket name.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	mb := &modelBucket{
		b: NewBucket(name, m),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	b Bucket
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error {
	obj, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if obj == nil || obj.Value() == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	res := obj.Value()

	if !reflect.TypeOf(res).AssignableTo(reflect.TypeOf(dest)) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", res, dest)
	}

	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(res).Elem())
	return nil
}

func (mb *modelBucket) Has(db ledger.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "bucket read")
	}
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "key not in the store")
	}
	return nil
}

func (mb *modelBucket) Put(db ledger.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	if err := mb.b.Save(db, NewSimpleObj(key, m)); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Create(db ledger.KVStore, key []byte, m Model) error {
	switch err := mb.Has(db, key); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "%s with key %X", mb.b.Name(), key)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return mb.Put(db, key, m)
}

func (mb *modelBucket) Delete(db ledger.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	return mb.b.Delete(db, key)
}

func (mb *modelBucket) ByIndex(db ledger.ReadOnlyKVStore, indexName string, key []byte, destination ModelSlicePtr) ([][]byte, error) {
	objs, err := mb.b.GetIndexed(db, indexName, key)
	if err != nil {
		return nil, err
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.IsNil() {
		return nil, errors.Wrap(errors.ErrType, "destination must be a non nil pointer to a slice")
	}
	slice := dest.Elem()
	if slice.Kind() != reflect.Slice {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to a slice")
	}
	elem := slice.Type().Elem()

	keys := make([][]byte, 0, len(objs))
	for _, obj := range objs {
		val := reflect.ValueOf(obj.Value())
		switch {
		case val.Type().AssignableTo(elem):
			slice = reflect.Append(slice, val)
		case val.Elem().Type().AssignableTo(elem):
			slice = reflect.Append(slice, val.Elem())
		default:
			return nil, errors.Wrapf(errors.ErrType, "%s cannot be appended to %s", val.Type(), slice.Type())
		}
		keys = append(keys, obj.Key())
	}
	dest.Elem().Set(slice)
	return keys, nil
}
