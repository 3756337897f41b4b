package gconf

import (
	"encoding/json"
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
)

type shopConfig struct {
	Owner    ledger.Address `cbor:"1,keyasint,omitempty" json:"owner"`
	Currency string         `cbor:"2,keyasint,omitempty" json:"currency"`
	Window   int64          `cbor:"3,keyasint,omitempty" json:"window"`
}

func (c *shopConfig) Marshal() ([]byte, error)   { return codec.Marshal(c) }
func (c *shopConfig) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, c) }
func (c *shopConfig) GetOwner() ledger.Address   { return c.Owner }

func (c *shopConfig) Validate() error {
	if c.Currency == "" {
		return errors.Wrap(errors.ErrEmpty, "currency")
	}
	return nil
}

type updateShopMsg struct {
	Patch *shopConfig
}

func (m *updateShopMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *updateShopMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (m *updateShopMsg) Path() string               { return "shop/update_configuration" }
func (m *updateShopMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	db := store.MemStore()

	if err := Load(db, "shop", &shopConfig{}); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
	if err := Save(db, "shop", &shopConfig{}); !errors.ErrEmpty.Is(err) {
		t.Fatalf("invalid configuration must not be saved, got %+v", err)
	}

	assert.Nil(t, Save(db, "shop", &shopConfig{Currency: "RFT", Window: 7}))
	var conf shopConfig
	assert.Nil(t, Load(db, "shop", &conf))
	assert.Equal(t, shopConfig{Currency: "RFT", Window: 7}, conf)
}

func TestInitConfig(t *testing.T) {
	db := store.MemStore()
	opts := ledger.Options{
		"conf": json.RawMessage(`{"shop": {"currency": "RFT", "window": 10}}`),
	}

	assert.Nil(t, InitConfig(db, opts, "shop", &shopConfig{}))
	var conf shopConfig
	assert.Nil(t, Load(db, "shop", &conf))
	assert.Equal(t, int64(10), conf.Window)

	if err := InitConfig(db, opts, "other", &shopConfig{}); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}

func TestUpdateConfigurationHandler(t *testing.T) {
	owner := ledgertest.NewCondition()
	admin := ledgertest.NewCondition()
	stranger := ledgertest.NewCondition()

	initAdmin := func(ledger.ReadOnlyKVStore) (ledger.Address, error) {
		return admin.Address(), nil
	}

	cases := map[string]struct {
		initConf *shopConfig
		signer   ledger.Condition
		patch    *shopConfig
		wantErr  *errors.Error
		wantConf shopConfig
	}{
		"owner updates a single field": {
			initConf: &shopConfig{Owner: owner.Address(), Currency: "RFT", Window: 7},
			signer:   owner,
			patch:    &shopConfig{Window: 14},
			wantConf: shopConfig{Owner: owner.Address(), Currency: "RFT", Window: 14},
		},
		"stranger cannot update": {
			initConf: &shopConfig{Owner: owner.Address(), Currency: "RFT", Window: 7},
			signer:   stranger,
			patch:    &shopConfig{Window: 14},
			wantErr:  errors.ErrUnauthorized,
		},
		"admin creates missing configuration": {
			signer:   admin,
			patch:    &shopConfig{Owner: owner.Address(), Currency: "RFT"},
			wantConf: shopConfig{Owner: owner.Address(), Currency: "RFT"},
		},
		"stranger cannot create missing configuration": {
			signer:  stranger,
			patch:   &shopConfig{Currency: "RFT"},
			wantErr: errors.ErrUnauthorized,
		},
		"missing patch": {
			initConf: &shopConfig{Owner: owner.Address(), Currency: "RFT"},
			signer:   owner,
			wantErr:  errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if tc.initConf != nil {
				assert.Nil(t, Save(db, "shop", tc.initConf))
			}
			auth := &ledgertest.Auth{Signer: tc.signer}
			h := NewUpdateConfigurationHandler("shop", &shopConfig{}, auth, initAdmin)
			tx := &ledgertest.Tx{Msg: &updateShopMsg{Patch: tc.patch}}

			_, err := h.Deliver(ledgertest.Context(), db, tx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			var conf shopConfig
			assert.Nil(t, Load(db, "shop", &conf))
			assert.Equal(t, tc.wantConf, conf)
		})
	}
}
