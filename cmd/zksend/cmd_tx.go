package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/holiman/uint256"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/kysee/zksend/zk-send/wallet"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli"
)

var (
	hashFlag = cli.StringFlag{
		Name:  "hash",
		Usage: "The hash of the transaction holding the notes.",
	}
	ivkFlag = cli.StringFlag{
		Name:  "ivk, i",
		Usage: "The incoming view key in hex.",
	}
	ovkFlag = cli.StringFlag{
		Name:  "ovk, o",
		Usage: "The outgoing view key in hex.",
	}
)

var txCommand = cli.Command{
	Name:  "tx",
	Usage: "Read and spend the notes of a transaction.",
	Subcommands: []cli.Command{
		decryptTxCommand,
		sendTxCommand,
		decryptNoteCommand,
	},
}

var decryptTxCommand = cli.Command{
	Name:  "decrypt",
	Usage: "Show the notes of a transaction the keys can open.",
	Flags: []cli.Flag{
		hashFlag,
		ivkFlag,
		ovkFlag,
		endpointFlag,
	},
	Action: decryptTx,
}

func decryptTx(ctx *cli.Context) error {
	if !ctx.IsSet("hash") {
		return errors.New("--hash is required")
	}
	w, err := openWallet(ctx)
	if err != nil {
		return err
	}
	report, err := w.Decrypt(context.Background(), ctx.String("hash"))
	if err != nil {
		return err
	}
	printReport(os.Stdout, report)
	return nil
}

// printReport lists the notes sender by sender, then the amount the wallet
// received if it received anything.
func printReport(out io.Writer, report *wallet.DecryptReport) {
	for _, sender := range report.Notes.Senders() {
		fmt.Fprintf(out, "Sender: %s\n", sender)
		for _, n := range report.Notes.Notes(sender) {
			fmt.Fprintf(out, "Receiver: %s, %s, %s, %s\n",
				n.Owner, wallet.FormatAmount(uint256.NewInt(n.Value)), n.AssetID, n.Memo)
		}
	}
	if !report.Received.IsZero() {
		fmt.Fprintf(out, "You have received %s in this transaction\n", wallet.FormatAmount(report.Received))
	}
}

var sendTxCommand = cli.Command{
	Name:  "send",
	Usage: "Spend the notes received in a transaction.",
	Description: `
	Every note the wallet owns in --hash is spent. --amount goes to
	--receiver and the rest, less --fee, comes back as change.`,
	Flags: []cli.Flag{
		hashFlag,
		ivkFlag,
		ovkFlag,
		cli.StringFlag{
			Name:  "sk, s",
			Usage: "The spending key in hex.",
		},
		cli.StringFlag{
			Name:  "receiver",
			Usage: "The address to pay, hex or base58.",
		},
		cli.StringFlag{
			Name:  "amount",
			Usage: "The amount to send in coins, e.g. 1.5.",
		},
		cli.Uint64Flag{
			Name:  "fee",
			Value: 1,
			Usage: "The fee in subunits.",
		},
		cli.Uint64Flag{
			Name:  "expiration",
			Usage: "The block height the transaction expires at. Defaults to the chain height plus 30.",
		},
		cli.StringFlag{
			Name:  "memo",
			Usage: "A memo for the receiver.",
		},
		endpointFlag,
	},
	Action: sendTx,
}

func sendTx(ctx *cli.Context) error {
	for _, name := range []string{"hash", "sk", "receiver", "amount"} {
		if !ctx.IsSet(name) {
			return fmt.Errorf("--%s is required", name)
		}
	}
	sk, err := shield.ParseSpendingKey(ctx.String("sk"))
	if err != nil {
		return err
	}
	receiver, err := types.ParseAddress(ctx.String("receiver"))
	if err != nil {
		return fmt.Errorf("%w: receiver: %v", wallet.ErrMalformedInput, err)
	}
	amount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return fmt.Errorf("%w: amount: %v", wallet.ErrMalformedInput, err)
	}
	var expiration *uint32
	if ctx.IsSet("expiration") {
		exp, err := blockHeight(ctx, "expiration")
		if err != nil {
			return err
		}
		expiration = &exp
	}

	w, err := openWallet(ctx)
	if err != nil {
		return err
	}
	req := wallet.CausalSendRequest{
		Hash:        ctx.String("hash"),
		SpendingKey: sk,
		Receiver:    receiver,
		Amount:      amount,
		Fee:         ctx.Uint64("fee"),
		Memo:        ctx.String("memo"),
		Expiration:  expiration,
	}

	fmt.Printf("You are about to send %s to %s\n", amount.String(), receiver.Hex())
	res, err := w.CausalSend(context.Background(), req)
	if err != nil {
		return err
	}
	printSendResult(os.Stdout, res)
	return nil
}

func printSendResult(out io.Writer, res *wallet.SendResult) {
	switch res.Status {
	case wallet.StatusSuccess:
		fmt.Fprintf(out, "Transaction sent successfully, hash: %s\n", res.Hash)
	default:
		fmt.Fprintf(out, "Transaction was rejected, reason: %s\n", res.Reason)
	}
}

var decryptNoteCommand = cli.Command{
	Name:  "note",
	Usage: "Decrypt a single note envelope.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "data",
			Usage: "The note envelope in hex.",
		},
		ivkFlag,
		ovkFlag,
	},
	Action: decryptNote,
}

func decryptNote(ctx *cli.Context) error {
	if !ctx.IsSet("data") {
		return errors.New("--data is required")
	}
	ivk, ovk, err := viewKeys(ctx)
	if err != nil {
		return err
	}
	d, err := wallet.NewNoteDecryptor(shield.Jubjub{}, ivk, ovk).Decrypt(ctx.String("data"))
	if err != nil {
		return err
	}
	printDecryption(os.Stdout, d)
	return nil
}

func printDecryption(out io.Writer, d wallet.Decryption) {
	if !d.Owned() {
		fmt.Fprintln(out, "The note is not readable with these keys")
		return
	}
	n := d.Note
	fmt.Fprintf(out, "Opened as: %s\n", d.Outcome)
	fmt.Fprintf(out, "Sender: %s\n", n.Sender.Hex())
	fmt.Fprintf(out, "Receiver: %s, %s, %s, %s\n",
		n.Owner.Hex(), wallet.FormatAmount(uint256.NewInt(n.Value)), n.AssetID.Hex(), n.Memo.String())
}
