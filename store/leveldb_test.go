package store

import (
	"testing"

	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest/assert"
)

func levelDBConstructor() (CacheableKVStore, func()) {
	db, err := MemLevelDB()
	if err != nil {
		panic(err)
	}
	return BTreeCacheable{db}, func() { db.Close() }
}

func TestLevelDBStore(t *testing.T) {
	NewTestSuite(levelDBConstructor).Run(t)
}

func TestLevelDBIteratorBounds(t *testing.T) {
	db, err := MemLevelDB()
	assert.Nil(t, err)
	defer db.Close()

	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Nil(t, db.Set([]byte(k), []byte("v"+k)))
	}

	collect := func(it Iterator) []string {
		defer it.Release()
		var keys []string
		for {
			k, _, err := it.Next()
			if errors.ErrIteratorDone.Is(err) {
				return keys
			}
			assert.Nil(t, err)
			keys = append(keys, string(k))
		}
	}

	it, err := db.Iterator([]byte("b"), []byte("d"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"b", "c"}, collect(it))

	it, err = db.ReverseIterator([]byte("b"), nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, collect(it))
}
