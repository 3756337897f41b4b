package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// GenesisFile is the name of the genesis document inside of the home
	// directory.
	GenesisFile = "genesis.json"

	flagChainID = "chain-id"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd writes a genesis document to the home directory. The application
// state is produced by given generator from the remaining arguments. An
// existing genesis file is never overwritten.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	var chainID string
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.StringVar(&chainID, flagChainID, "", "chain id, a random one if not set")
	if err := initFlags.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if chainID == "" {
		chainID = fmt.Sprintf("refit-%v", cmn.RandStr(6))
	}

	genFile := filepath.Join(home, GenesisFile)
	if fileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
		return nil
	}

	options, err := gen(initFlags.Args())
	if err != nil {
		return err
	}
	var state map[string]json.RawMessage
	if err := json.Unmarshal(options, &state); err != nil {
		return errors.Wrapf(errors.ErrInput, "app state: %s", err)
	}

	doc := app.Genesis{
		ChainID:  chainID,
		AppState: state,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal genesis")
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return errors.Wrap(err, "create home directory")
	}
	if err := os.WriteFile(genFile, out, 0600); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	logger.Info("Generated genesis file", "path", genFile, "chain_id", chainID)
	return nil
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
