package buyback

import "github.com/refit-labs/ledger/errors"

// Buyback reserves codes 330-339.
var ErrInvalidStatus = errors.Register(330, "invalid buyback status")
