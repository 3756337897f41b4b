package refitd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/crypto"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/marketplace"
)

// DefaultTicker is the currency of a freshly initialized ledger.
const DefaultTicker = "RFT"

// GenerateCoinKey returns the address of a new ed25519 key together with
// the hex encoded private key seed.
func GenerateCoinKey() (ledger.Address, string) {
	key := crypto.GenPrivKeyEd25519()
	seed := key.Ed25519[:32]
	return key.PublicKey().Address(), hex.EncodeToString(seed)
}

// GenInitOptions produces the application state of a development ledger
// with a single operator account. The operator owns the marketplace
// configuration, collects the fees, arbitrates disputes and holds the
// initial supply.
//
// Arguments are an optional ticker and an optional operator address. When
// no address is given a new key is generated and its seed printed.
func GenInitOptions(args []string) (json.RawMessage, error) {
	ticker := DefaultTicker
	if len(args) > 0 {
		ticker = args[0]
		if !coin.IsCC(ticker) {
			return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", ticker)
		}
	}

	var operator ledger.Address
	if len(args) > 1 {
		addr, err := ledger.ParseAddress(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "operator address")
		}
		operator = addr
	} else {
		addr, seed := GenerateCoinKey()
		operator = addr
		fmt.Println("operator key seed:", seed)
	}

	state := map[string]interface{}{
		"cash": []cash.GenesisAccount{
			{Address: operator, Coins: []coin.Coin{coin.NewCoin(1000000000, ticker)}},
		},
		"multisig": []interface{}{},
		"conf": map[string]interface{}{
			marketplace.ConfigPkg: marketplace.Configuration{
				Owner:        operator,
				FeeCollector: operator,
				Currency:     ticker,
				Arbiter:      &marketplace.ArbiterPolicy{Address: operator},
			},
		},
	}
	return json.MarshalIndent(state, "", "  ")
}
