package coin

import (
	"sort"

	"github.com/refit-labs/ledger/errors"
)

// Coins is a set of coins, at most one per currency, sorted by the ticker.
type Coins []*Coin

// CombineCoins creates a Coins containing all given coins.
// It will sort them and combine duplicates to produce
// a normalized array.
func CombineCoins(cs ...Coin) (Coins, error) {
	var res Coins
	for _, c := range cs {
		var err error
		if res, err = res.Add(c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Clone returns a deep copy of the coins
func (cs Coins) Clone() Coins {
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Add modifies the set, adding the coin. The result is normalized: empty
// coins are removed and tickers are kept in order. The receiver is not
// modified.
func (cs Coins) Add(c Coin) (Coins, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	res := cs.Clone()
	cur, i := res.findCoin(c.Ticker)
	if cur == nil {
		if c.IsZero() {
			return res, nil
		}
		res = append(res, c.Clone())
		sort.Slice(res, func(a, b int) bool { return res[a].Ticker < res[b].Ticker })
		return res, nil
	}
	sum, err := cur.Add(c)
	if err != nil {
		return nil, err
	}
	if sum.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &sum
	return res, nil
}

// Subtract removes the given coin from the set.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Combine returns a set with the values of both.
func (cs Coins) Combine(o Coins) (Coins, error) {
	res := cs.Clone()
	for _, c := range o {
		var err error
		if res, err = res.Add(*c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if there is at least that much
// coin in the set. If it returns true, then:
//   s.Subtract(c).IsNonNegative() == true
func (cs Coins) Contains(c Coin) bool {
	cur, _ := cs.findCoin(c.Ticker)
	if cur == nil {
		return c.IsZero() || !c.IsPositive()
	}
	return cur.IsGTE(c)
}

// Balance returns the amount held in the given currency.
func (cs Coins) Balance(ticker string) Coin {
	cur, _ := cs.findCoin(ticker)
	if cur == nil {
		return NewCoin(0, ticker)
	}
	return *cur
}

func (cs Coins) findCoin(ticker string) (*Coin, int) {
	for i, c := range cs {
		if c.Ticker == ticker {
			return c, i
		}
	}
	return nil, -1
}

// IsEmpty returns if nothing is there
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsPositive returns true there is at least one coin
// and all coins are positive
func (cs Coins) IsPositive() bool {
	if cs.IsEmpty() {
		return false
	}
	return cs.IsNonNegative()
}

// IsNonNegative returns true if all coins are positive,
// but also accepts an empty set
func (cs Coins) IsNonNegative() bool {
	for _, c := range cs {
		if !c.IsPositive() {
			return false
		}
	}
	return true
}

// Equals returns true if both sets hold the same coins.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires that all coins are in alphabetical
// order, non-zero and unique.
func (cs Coins) Validate() error {
	for i, c := range cs {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if c.IsZero() {
			return errors.Wrap(errors.ErrAmount, "zero coins")
		}
		if i > 0 && cs[i-1].Ticker >= c.Ticker {
			return errors.Wrap(errors.ErrCurrency, "coins not sorted or duplicated")
		}
	}
	return nil
}
