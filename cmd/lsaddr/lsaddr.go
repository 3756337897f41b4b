package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x/multisig"
)

type converter func(int) ledger.Address

var converters = map[string]converter{
	"multisig": func(i int) ledger.Address {
		return multisig.MultiSigCondition(orm.EncodeSequence(int64(i))).Address()
	},
}

//nolint
func main() {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	offsetFl := fl.Int("offset", 1, "Ignore first N contract addresses.")
	limitFl := fl.Int("limit", 20, "Print N contract addresses.")
	headerFl := fl.Bool("header", true, "Display header")
	bech32Fl := fl.Bool("bech32", false, "Print addresses using bech32 encoding.")
	fl.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage:
	%s <extension> [options]

Print addresses for selected extension.

Available extensions are: %s

Contract addresses are created using a sequence counter. That means that those
addresses are deterministic and can be precomputed. This knowledge is helpful
when creating a genesis file, for example to use a multisig contract as the
dispute arbiter before it exists.

`, os.Args[0], converterNames())
		fl.PrintDefaults()
	}
	fl.Parse(os.Args[1:])

	if fl.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Extension name is required.")
		fmt.Fprintf(os.Stderr, "Available extensions: %s\n", converterNames())
		os.Exit(2)
	}

	if *offsetFl < 1 {
		fmt.Fprintln(os.Stderr, "Offset must be greater than zero.")
		os.Exit(2)
	}
	if *limitFl < 1 {
		fmt.Fprintln(os.Stderr, "Limit must be greater than zero.")
		os.Exit(2)
	}

	addrFn, ok := converters[fl.Args()[0]]
	if !ok {
		fmt.Fprintln(os.Stderr, "Unknown name.")
		os.Exit(2)
	}

	if err := printAddresses(os.Stdout, addrFn, *headerFl, *bech32Fl, *limitFl, *offsetFl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func converterNames() string {
	var names []string
	for n := range converters {
		names = append(names, n)
	}
	return strings.Join(names, ", ")
}

func printAddresses(out io.Writer, addr converter, header, bech32 bool, limit, offset int) error {
	w := tabwriter.NewWriter(out, 2, 0, 2, ' ', 0)
	defer w.Flush()

	if header {
		fmt.Fprintln(w, "index\taddress")
	}
	for i := offset; i < limit+offset; i++ {
		a := addr(i)
		enc := a.String()
		if bech32 {
			var err error
			if enc, err = a.Bech32(); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%s\n", i, enc)
	}
	return nil
}
