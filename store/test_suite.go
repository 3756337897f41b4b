package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest/assert"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. It is shared by the btree cache and the LevelDB backed
// store tests.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh, empty store and a function releasing
// its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// Run executes all checks of the suite as subtests.
func (s *TestSuite) Run(t *testing.T) {
	t.Run("get set", s.GetSet)
	t.Run("cache conflicts", s.CacheConflicts)
	t.Run("fuzz iterator", s.FuzzIterator)
	t.Run("iterator with conflicts", s.IteratorWithConflicts)
}

// GetSet walks an order record through the cache layers the ledger uses:
// a block cache on top of the committed state and a transaction cache on
// top of the block.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	order, listing, task := []byte("order:01"), []byte("listing:01"), []byte("cron:01")

	s.AssertGetHas(t, base, order, nil, false)
	assert.Nil(t, base.Set(order, []byte("awaiting_shipment")))
	s.AssertGetHas(t, base, order, []byte("awaiting_shipment"), true)

	// A block cache sees the committed state and hides its own writes
	// until written.
	block := base.CacheWrap()
	s.AssertGetHas(t, block, order, []byte("awaiting_shipment"), true)
	assert.Nil(t, block.Set(listing, []byte("sold")))
	s.AssertGetHas(t, block, listing, []byte("sold"), true)
	s.AssertGetHas(t, base, listing, nil, false)

	// A failed transaction is discarded.
	failed := block.CacheWrap()
	assert.Nil(t, failed.Set(task, []byte("auto_release")))
	assert.Nil(t, failed.Delete(order))
	failed.Discard()
	s.AssertGetHas(t, block, task, nil, false)
	s.AssertGetHas(t, block, order, []byte("awaiting_shipment"), true)

	// A discarded cache can record a result without its dropped writes.
	result := []byte("result:01")
	assert.Nil(t, failed.Set(result, []byte("failed")))
	assert.Nil(t, failed.Write())
	s.AssertGetHas(t, block, result, []byte("failed"), true)
	s.AssertGetHas(t, block, task, nil, false)
	s.AssertGetHas(t, block, order, []byte("awaiting_shipment"), true)

	// A successful one is written into the block.
	ok := block.CacheWrap()
	assert.Nil(t, ok.Set(order, []byte("shipped")))
	assert.Nil(t, ok.Set(task, []byte("auto_release")))
	assert.Nil(t, ok.Write())
	s.AssertGetHas(t, block, order, []byte("shipped"), true)
	s.AssertGetHas(t, base, order, []byte("awaiting_shipment"), true)

	// Commit.
	assert.Nil(t, block.Write())
	s.AssertGetHas(t, base, order, []byte("shipped"), true)
	s.AssertGetHas(t, base, listing, []byte("sold"), true)
	s.AssertGetHas(t, base, task, []byte("auto_release"), true)

	// Deletes propagate the same way.
	next := base.CacheWrap()
	assert.Nil(t, next.Delete(task))
	s.AssertGetHas(t, next, task, nil, false)
	s.AssertGetHas(t, base, task, []byte("auto_release"), true)
	assert.Nil(t, next.Write())
	s.AssertGetHas(t, base, task, nil, false)
}

// CacheConflicts checks that a child cache can overwrite and delete values
// of its parent without affecting it until written.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(6, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model // Key is what we query, Value is what we expect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[4]), SetOp(ks[3], vs[5]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[4]), Pair(ks[2], nil), Pair(ks[3], vs[5])},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[0], vs[0])},
			childOps:      []Op{DelOp(ks[0]), SetOp(ks[0], vs[3])},
			parentQueries: []Model{Pair(ks[0], vs[0])},
			childQueries:  []Model{Pair(ks[0], vs[3])},
		},
		"delete a missing key": {
			childOps:      []Op{DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[2], nil)},
			childQueries:  []Model{Pair(ks[2], nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// FuzzIterator checks range iteration over random data, both when all data
// is in the cache and when it is merged with the parent.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50

	toSet := randModels(size, 8, 40)
	childOps := append(makeSetOps(toSet...), makeDelOps(randModels(20, 8, 40)...)...)
	expect := sortModels(toSet)

	parentSet := randModels(size, 8, 40)
	parentOps := append(makeSetOps(parentSet...), makeDelOps(randModels(20, 8, 40)...)...)
	both := sortModels(append(toSet, parentSet...))

	cases := map[string]iterCase{
		"just write to a child with empty parent": {
			child:   childOps,
			queries: rangeQueries(expect),
		},
		"iterator combines child and parent": {
			pre:     parentOps,
			child:   childOps,
			queries: rangeQueries(both),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// rangeQueries returns forward and reverse queries, without limits, with a
// start, with an end and with both, over given sorted models.
func rangeQueries(sorted []Model) []rangeQuery {
	n := len(sorted)
	return []rangeQuery{
		{nil, nil, false, sorted},
		{sorted[10].Key, nil, false, sorted[10:]},
		{nil, sorted[n-8].Key, false, sorted[:n-8]},
		{sorted[17].Key, sorted[28].Key, false, sorted[17:28]},

		{nil, nil, true, reverse(sorted)},
		{sorted[34].Key, nil, true, reverse(sorted[34:])},
		{nil, sorted[19].Key, true, reverse(sorted[:19])},
		{sorted[6].Key, sorted[26].Key, true, reverse(sorted[6:26])},
	}
}

// IteratorWithConflicts covers iteration when the child overwrites or
// deletes parent values.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(6, 20, 100)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	// a2, b2 have same keys, different values
	a2.Key = a.Key
	b2.Key = b.Key

	abc := sortModels([]Model{a, b, c})
	overwritten := sortModels([]Model{a2, b2, c, d})

	cases := map[string]iterCase{
		"iterate in child only": {
			child: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{abc[1].Key, abc[2].Key, false, abc[1:2]},
				{nil, nil, true, reverse(abc)},
			},
		},
		"iterate over parent only": {
			pre: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{abc[1].Key, abc[2].Key, false, abc[1:2]},
				{nil, nil, true, reverse(abc)},
			},
		},
		"simple combination": {
			pre:   makeSetOps(a, b),
			child: makeSetOps(c),
			queries: []rangeQuery{
				{nil, nil, false, abc},
				{nil, nil, true, reverse(abc)},
			},
		},
		"child values win": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, overwritten},
				{overwritten[1].Key, overwritten[3].Key, false, overwritten[1:3]},
				{nil, nil, true, reverse(overwritten)},
			},
		},
		"child deletes are skipped": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, []Model{c}},
				{nil, c.Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// AssertGetHas checks both Get and Has results for a key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

//nolint
func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

func (i iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range i.pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range i.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range i.queries {
		var iter Iterator
		var err error
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for n, want := range q.expected {
			key, value, err := iter.Next()
			assert.Nil(t, err)
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("want key %X at %d, got %X", want.Key, n, key)
			}
			assert.Equal(t, want.Value, value)
		}
		if _, _, err := iter.Next(); !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("want ErrIteratorDone, got %+v", err)
		}
		iter.Release()
	}
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
