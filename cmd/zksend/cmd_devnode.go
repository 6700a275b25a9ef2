package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/kysee/zksend/zk-send/wallet"
	"github.com/urfave/cli"
)

var devnodeCommand = cli.Command{
	Name:  "devnode",
	Usage: "Run an in-memory ledger serving the node and indexer apis.",
	Description: `
	The ledger keeps everything in memory and is gone when the process
	exits. Each --mint ADDR:AMOUNT creates one transaction paying AMOUNT
	coins to ADDR before the server starts.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Value: ":8021",
			Usage: "The address to serve on.",
		},
		cli.StringSliceFlag{
			Name:  "mint",
			Usage: "Fund an address at start, as ADDR:AMOUNT. May be repeated.",
		},
		cli.Uint64Flag{
			Name:  "height",
			Value: 1,
			Usage: "The starting block height.",
		},
		cli.BoolFlag{
			Name:  "implicit-index",
			Usage: "Leave note indices out of transaction records.",
		},
	},
	Action: runDevnode,
}

func runDevnode(ctx *cli.Context) error {
	log, err := newLogger(ctx.GlobalString("loglevel"))
	if err != nil {
		return err
	}

	height, err := blockHeight(ctx, "height")
	if err != nil {
		return err
	}
	opts := []node.LedgerOption{node.WithHeight(height)}
	if ctx.Bool("implicit-index") {
		opts = append(opts, node.WithImplicitNoteIndex())
	}
	ledger, err := node.NewLedger(opts...)
	if err != nil {
		return err
	}

	for _, m := range ctx.StringSlice("mint") {
		addr, value, err := parseMint(m)
		if err != nil {
			return err
		}
		hash, err := ledger.Mint(map[types.Address]uint64{addr: value})
		if err != nil {
			return err
		}
		fmt.Printf("Minted %s to %s, hash: %s\n", wallet.FormatAmount(uint256.NewInt(value)), addr.Hex(), hash)
	}

	srv := node.NewServer(ledger, log).HTTPServer(ctx.String("listen"))
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("listen", srv.Addr).Msg("devnode started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("devnode stopped")
	return nil
}

// parseMint splits ADDR:AMOUNT, AMOUNT being in coins.
func parseMint(s string) (types.Address, uint64, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return types.Address{}, 0, fmt.Errorf("mint %q: expected ADDR:AMOUNT", s)
	}
	addr, err := types.ParseAddress(s[:i])
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("mint %q: %w", s, err)
	}
	value, err := wallet.ParseAmount(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("mint %q: %w", s, err)
	}
	return addr, value, nil
}
