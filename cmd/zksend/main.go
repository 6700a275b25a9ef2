package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/kysee/zksend/zk-send/config"
	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/wallet"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stdout, "[zksend] %v\n", err)
	os.Exit(1)
}

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "backend",
		Value:  config.BackendNode,
		Usage:  "Where transactions are looked up, node or indexer.",
		EnvVar: config.EnvBackend,
	},
	cli.StringFlag{
		Name:   "indexer",
		Usage:  "The base url of the indexer, required by the indexer backend.",
		EnvVar: config.EnvIndexerURL,
	},
	cli.DurationFlag{
		Name:   "timeout",
		Value:  config.DefaultTimeout,
		Usage:  "Timeout of a single request to the node.",
		EnvVar: config.EnvTimeout,
	},
	cli.StringFlag{
		Name:   "loglevel",
		Value:  config.DefaultLogLevel,
		Usage:  "Log level written to stderr, e.g. debug, info, warn.",
		EnvVar: config.EnvLogLevel,
	},
	cli.BoolFlag{
		Name:   "parallel-witness",
		Usage:  "Fetch the witnesses of the spent notes concurrently.",
		EnvVar: config.EnvParallelWitness,
	},
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "zksend"
	app.Usage = "decrypt and spend shielded notes"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		accountCommand,
		txCommand,
		devnodeCommand,
	}
	return app
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fatal(err)
	}
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

var endpointFlag = cli.StringFlag{
	Name:   "endpoint, e",
	Value:  config.DefaultEndpoint,
	Usage:  "The host:port of the node rpc.",
	EnvVar: config.EnvEndpoint,
}

// loadConfig starts from the ZKSEND_* environment and lets explicit flags
// override it.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if ctx.GlobalIsSet("backend") {
		cfg.Backend = ctx.GlobalString("backend")
	}
	if ctx.GlobalIsSet("indexer") {
		cfg.IndexerURL = ctx.GlobalString("indexer")
	}
	if ctx.GlobalIsSet("timeout") {
		cfg.Timeout = ctx.GlobalDuration("timeout")
	}
	if ctx.GlobalIsSet("loglevel") {
		cfg.LogLevel = ctx.GlobalString("loglevel")
	}
	if ctx.GlobalIsSet("parallel-witness") {
		cfg.ParallelWitness = ctx.GlobalBool("parallel-witness")
	}
	if ctx.IsSet("endpoint") {
		cfg.Endpoint = ctx.String("endpoint")
	}
	return cfg, cfg.Validate()
}

// blockHeight reads a uint64 flag that must fit a block height.
func blockHeight(ctx *cli.Context, name string) (uint32, error) {
	v := ctx.Uint64(name)
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: --%s %d is above the largest block height %d",
			wallet.ErrMalformedInput, name, v, uint64(math.MaxUint32))
	}
	return uint32(v), nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// viewKeys reads the -i and -o flags.
func viewKeys(ctx *cli.Context) (shield.IncomingViewKey, shield.OutgoingViewKey, error) {
	ivk, err := shield.ParseIncomingViewKey(ctx.String("ivk"))
	if err != nil {
		return ivk, shield.OutgoingViewKey{}, err
	}
	ovk, err := shield.ParseOutgoingViewKey(ctx.String("ovk"))
	return ivk, ovk, err
}

// openWallet builds the transport and wallet for a tx subcommand.
func openWallet(ctx *cli.Context) (*wallet.Wallet, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	ivk, ovk, err := viewKeys(ctx)
	if err != nil {
		return nil, err
	}
	transport, err := node.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return wallet.New(shield.Jubjub{}, transport, ivk, ovk,
		wallet.WithLogger(log),
		wallet.WithParallelWitnessFetch(cfg.ParallelWitness))
}
