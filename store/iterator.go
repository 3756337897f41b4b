package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/refit-labs/ledger/errors"
)

// cacheIterator merges the items written to a cache wrap with the content
// of the parent store. Cache items take precedence over parent values with
// the same key and deleted items hide them.
type cacheIterator struct {
	items     []btree.Item
	idx       int
	parent    Iterator
	ascending bool

	// one element look ahead of the parent iterator
	pKey, pVal []byte
	pDone      bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []btree.Item, parent Iterator, ascending bool) *cacheIterator {
	return &cacheIterator{
		items:     items,
		parent:    parent,
		ascending: ascending,
	}
}

func (c *cacheIterator) Next() ([]byte, []byte, error) {
	for {
		if c.pKey == nil && !c.pDone {
			if err := c.advanceParent(); err != nil {
				return nil, nil, err
			}
		}

		var ours btree.Item
		if c.idx < len(c.items) {
			ours = c.items[c.idx]
		}

		switch {
		case ours == nil && c.pDone:
			return nil, nil, errors.ErrIteratorDone
		case ours == nil:
			return c.takeParent()
		case c.pDone:
			c.idx++
			if k, v, ok := itemValue(ours); ok {
				return k, v, nil
			}
		default:
			cmp := bytes.Compare(ours.(keyer).Key(), c.pKey)
			if !c.ascending {
				cmp = -cmp
			}
			if cmp > 0 {
				return c.takeParent()
			}
			if cmp == 0 {
				// cache shadows the parent value
				c.pKey, c.pVal = nil, nil
			}
			c.idx++
			if k, v, ok := itemValue(ours); ok {
				return k, v, nil
			}
		}
	}
}

func (c *cacheIterator) takeParent() ([]byte, []byte, error) {
	k, v := c.pKey, c.pVal
	c.pKey, c.pVal = nil, nil
	return k, v, nil
}

func (c *cacheIterator) advanceParent() error {
	k, v, err := c.parent.Next()
	if errors.ErrIteratorDone.Is(err) {
		c.pDone = true
		return nil
	}
	if err != nil {
		return err
	}
	c.pKey, c.pVal = k, v
	return nil
}

func (c *cacheIterator) Release() {
	c.parent.Release()
	c.items = nil
}

// itemValue returns the key and value of a set item. Deleted items are
// reported with ok set to false.
func itemValue(item btree.Item) (key, value []byte, ok bool) {
	switch t := item.(type) {
	case setItem:
		return t.key, t.value, true
	default:
		return nil, nil, false
	}
}
