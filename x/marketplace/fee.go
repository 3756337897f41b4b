package marketplace

import (
	"github.com/holiman/uint256"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
)

// FeeDivisor takes one percent of every amount released to a seller.
const FeeDivisor = 100

// SplitFee returns the platform fee and the seller share of a released
// amount. The fee is the amount divided by the divisor, rounded down. The
// rounding remainder always stays with the seller.
func SplitFee(amount coin.Coin, divisor int64) (fee, seller coin.Coin, err error) {
	if !amount.IsNonNegative() {
		return fee, seller, errors.Wrapf(errors.ErrAmount, "negative amount %s", amount)
	}
	if divisor <= 0 {
		return fee, seller, errors.Wrapf(errors.ErrInput, "fee divisor %d", divisor)
	}
	f := new(uint256.Int).Div(uint256.NewInt(uint64(amount.Amount)), uint256.NewInt(uint64(divisor)))
	fee = coin.NewCoin(int64(f.Uint64()), amount.Ticker)
	seller, err = amount.Subtract(fee)
	return fee, seller, err
}

// SplitShares returns the buyer and seller shares of an amount split by the
// buyer percentage. The buyer share is rounded down, the remainder goes to
// the seller.
func SplitShares(amount coin.Coin, buyerPercentage uint8) (buyer, seller coin.Coin, err error) {
	if !amount.IsNonNegative() {
		return buyer, seller, errors.Wrapf(errors.ErrAmount, "negative amount %s", amount)
	}
	if buyerPercentage > 100 {
		return buyer, seller, errors.Wrapf(errors.ErrInput, "buyer percentage %d", buyerPercentage)
	}
	// 256 bit intermediate so that the product never overflows.
	b := new(uint256.Int).Mul(uint256.NewInt(uint64(amount.Amount)), uint256.NewInt(uint64(buyerPercentage)))
	b.Div(b, uint256.NewInt(100))
	buyer = coin.NewCoin(int64(b.Uint64()), amount.Ticker)
	seller, err = amount.Subtract(buyer)
	return buyer, seller, err
}
