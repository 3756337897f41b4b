package coin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest/assert"
)

func TestCoinArithmetic(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		want    Coin
		wantErr *errors.Error
	}{
		"same currency": {
			a:    NewCoin(10, "RFT"),
			b:    NewCoin(5, "RFT"),
			want: NewCoin(15, "RFT"),
		},
		"negative operand": {
			a:    NewCoin(10, "RFT"),
			b:    NewCoin(-15, "RFT"),
			want: NewCoin(-5, "RFT"),
		},
		"currency mismatch": {
			a:       NewCoin(10, "RFT"),
			b:       NewCoin(5, "USDC"),
			wantErr: errors.ErrCurrency,
		},
		"overflow": {
			a:       NewCoin(math.MaxInt64, "RFT"),
			b:       NewCoin(1, "RFT"),
			wantErr: errors.ErrOverflow,
		},
		"underflow": {
			a:       NewCoin(math.MinInt64, "RFT"),
			b:       NewCoin(-1, "RFT"),
			wantErr: errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Coin
		wantErr *errors.Error
	}{
		"with space":    {raw: "1000 RFT", want: NewCoin(1000, "RFT")},
		"without space": {raw: "7USDC", want: NewCoin(7, "USDC")},
		"no amount":     {raw: "RFT", wantErr: errors.ErrInput},
		"bad ticker":    {raw: "10 RFTXX", wantErr: errors.ErrCurrency},
		"bad amount":    {raw: "1.5 RFT", wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCoinJSON(t *testing.T) {
	var c Coin
	assert.Nil(t, json.Unmarshal([]byte(`"25 RFT"`), &c))
	assert.Equal(t, NewCoin(25, "RFT"), c)

	assert.Nil(t, json.Unmarshal([]byte(`{"ticker": "RFT", "amount": 3}`), &c))
	assert.Equal(t, NewCoin(3, "RFT"), c)
}

func TestCoinsAddSubtract(t *testing.T) {
	cs, err := CombineCoins(NewCoin(5, "USDC"), NewCoin(10, "RFT"), NewCoin(1, "RFT"))
	assert.Nil(t, err)
	assert.Nil(t, cs.Validate())
	assert.Equal(t, 2, len(cs))
	assert.Equal(t, NewCoin(11, "RFT"), *cs[0])

	if !cs.Contains(NewCoin(11, "RFT")) {
		t.Fatal("must contain the full balance")
	}
	if cs.Contains(NewCoin(12, "RFT")) {
		t.Fatal("must not contain more than the balance")
	}

	cs, err = cs.Subtract(NewCoin(11, "RFT"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(cs))
	assert.Equal(t, NewCoin(0, "RFT"), cs.Balance("RFT"))
	assert.Equal(t, NewCoin(5, "USDC"), cs.Balance("USDC"))
}
