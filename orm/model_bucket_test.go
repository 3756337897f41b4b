package orm

import (
	"testing"

	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
)

func TestModelBucket(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("cnts", &Counter{})

	if err := b.Put(db, []byte("c1"), &Counter{Count: 1}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 Counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	if c1.Count != 1 {
		t.Fatalf("unexpected counter state: %d", c1.Count)
	}

	if err := b.Delete(db, []byte("c1")); err != nil {
		t.Fatalf("cannot delete c1 counter: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("c1"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
}

func TestModelBucketCreate(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	assert.Nil(t, b.Create(db, []byte("c1"), &Counter{Count: 1}))
	if err := b.Create(db, []byte("c1"), &Counter{Count: 2}); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("want duplicate error, got %+v", err)
	}

	var c Counter
	assert.Nil(t, b.One(db, []byte("c1"), &c))
	assert.Equal(t, int64(1), c.Count)

	if err := b.Put(db, []byte("c2"), &Counter{Count: -1}); !errors.ErrModel.Is(err) {
		t.Fatalf("invalid model must not be saved, got %+v", err)
	}
	if err := b.Has(db, []byte("c2")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{},
		WithIndex("owner", counterOwner, false))

	alice, bob := []byte("alice"), []byte("bob")
	assert.Nil(t, b.Put(db, []byte("c1"), &Counter{Count: 1, Owner: alice}))
	assert.Nil(t, b.Put(db, []byte("c2"), &Counter{Count: 2, Owner: bob}))
	assert.Nil(t, b.Put(db, []byte("c3"), &Counter{Count: 3, Owner: alice}))

	cases := map[string]struct {
		owner    []byte
		wantKeys [][]byte
		wantErr  *errors.Error
	}{
		"two matches": {
			owner:    alice,
			wantKeys: [][]byte{[]byte("c1"), []byte("c3")},
		},
		"one match": {
			owner:    bob,
			wantKeys: [][]byte{[]byte("c2")},
		},
		"no match": {
			owner:    []byte("carol"),
			wantKeys: [][]byte{},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var found []*Counter
			keys, err := b.ByIndex(db, "owner", tc.owner, &found)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.wantKeys, keys)
			assert.Equal(t, len(tc.wantKeys), len(found))
		})
	}

	// Moving an entity to another owner updates the index.
	assert.Nil(t, b.Put(db, []byte("c1"), &Counter{Count: 1, Owner: bob}))
	var values []Counter
	keys, err := b.ByIndex(db, "owner", bob, &values)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("c1"), []byte("c2")}, keys)
	assert.Equal(t, int64(1), values[0].Count)

	assert.Nil(t, b.Delete(db, []byte("c2")))
	keys, err = b.ByIndex(db, "owner", bob, &values)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("c1")}, keys)

	if _, err := b.ByIndex(db, "unknown", bob, &values); !ErrInvalidIndex.Is(err) {
		t.Fatalf("want invalid index error, got %+v", err)
	}
}

func TestUniqueIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{},
		WithIndex("owner", counterOwner, true))

	assert.Nil(t, b.Put(db, []byte("c1"), &Counter{Owner: []byte("alice")}))
	if err := b.Put(db, []byte("c2"), &Counter{Owner: []byte("alice")}); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("want duplicate error, got %+v", err)
	}
	// Entities without an index value are not indexed.
	assert.Nil(t, b.Put(db, []byte("c3"), &Counter{}))
	assert.Nil(t, b.Put(db, []byte("c4"), &Counter{}))
}

func TestSequence(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("cnts", "id")

	first, err := s.NextVal(db)
	assert.Nil(t, err)
	second, err := s.NextInt(db)
	assert.Nil(t, err)

	assert.Equal(t, EncodeSequence(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(0), DecodeSequence(nil))
}

func TestMultiRef(t *testing.T) {
	m, err := NewMultiRef([]byte("b"), []byte("a"), []byte("c"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, m.Refs)

	if err := m.Add([]byte("a")); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("want duplicate, got %+v", err)
	}
	assert.Nil(t, m.Remove([]byte("b")))
	if err := m.Remove([]byte("b")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
	assert.Equal(t, [][]byte{[]byte("a"), []byte("c")}, m.Refs)
}
