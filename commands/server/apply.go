package server

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagDebug = "debug"
	flagTime  = "time"
)

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags. The returned function
// releases the application storage.
type AppGenerator func(home string, logger log.Logger, debug bool) (*app.Ledger, func() error, error)

// BlockResult is written for every delivered transaction.
type BlockResult struct {
	Height int64           `json:"height"`
	Line   int             `json:"line"`
	Code   uint32          `json:"code"`
	Log    string          `json:"log,omitempty"`
	Data   string          `json:"data,omitempty"`
	Tags   json.RawMessage `json:"tags,omitempty"`
}

func parseApplyFlags(args []string) (bool, time.Time, error) {
	var debug bool
	var blockTime string

	applyFlags := flag.NewFlagSet("apply", flag.ContinueOnError)
	applyFlags.BoolVar(&debug, flagDebug, false, "call stack returned on error")
	applyFlags.StringVar(&blockTime, flagTime, "", "block time in RFC3339 format, current time if not set")
	if err := applyFlags.Parse(args); err != nil {
		return false, time.Time{}, errors.Wrap(errors.ErrInput, err.Error())
	}
	if blockTime == "" {
		return debug, time.Now(), nil
	}
	now, err := time.Parse(time.RFC3339, blockTime)
	if err != nil {
		return false, time.Time{}, errors.Wrapf(errors.ErrInput, "block time: %s", err)
	}
	return debug, now, nil
}

// ApplyCmd processes a single block. Hex encoded transactions are read from
// given input, one per line, and delivered in order after the scheduled tasks
// of the block were executed. The genesis file from the home directory is
// loaded first if the ledger was not initialized yet.
func ApplyCmd(gen AppGenerator, logger log.Logger, home string, in io.Reader, out io.Writer, args []string) (err error) {
	debug, now, err := parseApplyFlags(args)
	if err != nil {
		return err
	}

	l, closer, err := gen(home, logger, debug)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close storage")
		}
	}()

	if l.ChainID() == "" {
		doc, err := app.LoadGenesis(filepath.Join(home, GenesisFile))
		if err != nil {
			return err
		}
		if _, err := l.InitChain(*doc); err != nil {
			return err
		}
		logger.Info("Loaded genesis", "chain_id", doc.ChainID)
	}

	last, err := l.LastCommitID()
	if err != nil {
		return err
	}
	height := last.Version + 1

	tick := l.BeginBlock(height, now)
	logger.Info("Block started", "height", height, "time", now.UTC(), "tasks", len(tick.Tags))

	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		raw, err := hex.DecodeString(text)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "line %d: not a hex encoded transaction", line)
		}
		res := l.DeliverTx(raw)
		br := BlockResult{
			Height: height,
			Line:   line,
			Code:   res.Code,
			Log:    res.Log,
		}
		if len(res.Data) != 0 {
			br.Data = strings.ToUpper(hex.EncodeToString(res.Data))
		}
		if len(res.Tags) != 0 {
			if br.Tags, err = json.Marshal(res.Tags); err != nil {
				return errors.Wrap(err, "marshal tags")
			}
		}
		if err := enc.Encode(br); err != nil {
			return errors.Wrap(err, "write result")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read transactions")
	}

	id, err := l.Commit()
	if err != nil {
		return err
	}
	logger.Info("Block committed", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return nil
}
