package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/gconf"
)

// Initializer fulfils the ledger.Initializer interface. It loads the
// marketplace configuration from the genesis file.
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis stores the "marketplace" entry of the "conf" genesis section.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	return gconf.InitConfig(db, opts, ConfigPkg, &Configuration{})
}
