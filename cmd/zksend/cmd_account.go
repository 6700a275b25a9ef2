package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kysee/zksend/zk-send/shield"
	"github.com/urfave/cli"
)

var accountCommand = cli.Command{
	Name:  "account",
	Usage: "Manage shielded accounts.",
	Subcommands: []cli.Command{
		newAccountCommand,
	},
}

var newAccountCommand = cli.Command{
	Name:  "new",
	Usage: "Create an account and print its keys.",
	Description: `
	Without flags 24 fresh words in --language are generated and the
	spending key is derived from them. With --mnemonic the words are checked
	against the word list of --language before the key is derived. With
	--key an existing spending key is shown again.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "mnemonic",
			Usage: "Derive the spending key from these words.",
		},
		cli.StringFlag{
			Name:  "language",
			Value: shield.DefaultLanguage,
			Usage: "The mnemonic word list, one of " + strings.Join(shield.Languages(), ", ") + ".",
		},
		cli.StringFlag{
			Name:  "passphrase",
			Usage: "Passphrase mixed into the mnemonic derivation.",
		},
		cli.StringFlag{
			Name:  "key",
			Usage: "An existing spending key in hex.",
		},
	},
	Action: newAccount,
}

func newAccount(ctx *cli.Context) error {
	if ctx.IsSet("mnemonic") && ctx.IsSet("key") {
		return errors.New("--mnemonic and --key are mutually exclusive")
	}
	if ctx.IsSet("passphrase") && !ctx.IsSet("mnemonic") {
		return errors.New("--passphrase requires --mnemonic")
	}

	var (
		sk       shield.SpendingKey
		mnemonic string
		err      error
	)
	switch {
	case ctx.IsSet("key"):
		sk, err = shield.ParseSpendingKey(ctx.String("key"))
	case ctx.IsSet("mnemonic"):
		sk, err = shield.SpendingKeyFromMnemonic(ctx.String("mnemonic"), ctx.String("passphrase"), ctx.String("language"))
	default:
		mnemonic, err = shield.NewMnemonic(ctx.String("language"))
		if err == nil {
			sk, err = shield.SpendingKeyFromMnemonic(mnemonic, "", ctx.String("language"))
		}
	}
	if err != nil {
		return err
	}

	acct, err := shield.NewAccount(sk)
	if err != nil {
		return err
	}
	if mnemonic != "" {
		fmt.Printf("Mnemonic:          %s\n", mnemonic)
	}
	fmt.Printf("Spending key:      %s\n", acct.SpendingKey.Hex())
	fmt.Printf("Incoming view key: %s\n", acct.IncomingViewKey.Hex())
	fmt.Printf("Outgoing view key: %s\n", acct.OutgoingViewKey.Hex())
	fmt.Printf("Address:           %s\n", acct.Address.Hex())
	fmt.Printf("Address (base58):  %s\n", acct.Address.Base58())
	return nil
}
