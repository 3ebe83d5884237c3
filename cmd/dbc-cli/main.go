// Command dbc-cli is a command-line interface for interacting with a dbc
// spentbook. Unlike a real deployment, this CLI mints its own genesis dbc
// and runs its own in-process spentbook node: there is no RPC transport in
// this tree, so every invocation starts from a fresh ledger.
package main

import (
	"fmt"
	"os"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/builder"
	"github.com/ccoin/dbc/internal/dbc"
	"github.com/ccoin/dbc/internal/dbctx"
	"github.com/ccoin/dbc/internal/spentbook"
)

const (
	version       = "0.1.0"
	genesisSupply = 1_000_000
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("dbc-cli v%s\n", version)

	case "help":
		printUsage()

	case "wallet":
		if len(os.Args) < 3 {
			fmt.Println("Usage: dbc-cli wallet <subcommand>")
			fmt.Println("Subcommands: new")
			os.Exit(1)
		}
		cmdWallet(os.Args[2:])

	case "demo":
		if err := cmdDemo(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("dbc-cli - command-line interface for dbc")
	fmt.Println()
	fmt.Println("Usage: dbc-cli <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  version  Show version information")
	fmt.Println("  help     Show this help message")
	fmt.Println("  wallet   Wallet operations (new)")
	fmt.Println("  demo     Mint a genesis dbc, split it between two owners, and verify the result")
}

func cmdWallet(args []string) {
	switch args[0] {
	case "new":
		owner, err := blskey.NewRandomOwnerBase()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wallet created.")
		fmt.Printf("  Public address: %x\n", owner.PublicAddress().Bytes())

	default:
		fmt.Printf("Unknown wallet command: %s\n", args[0])
	}
}

// cmdDemo walks the full lifecycle a real network would spread across many
// independent parties: mint a genesis dbc, split it into two outputs owned
// by different wallets, have a spentbook node attest and record the spend,
// and verify the resulting dbcs against that spentbook.
func cmdDemo() error {
	spentbookSigner, err := randomDerivedKey()
	if err != nil {
		return fmt.Errorf("failed to generate spentbook signing key: %w", err)
	}
	verifier := spentbook.NewKeyVerifier(spentbookSigner.DbcId())

	genesisOwner, err := randomOwnerOnce()
	if err != nil {
		return fmt.Errorf("failed to generate genesis owner: %w", err)
	}
	genesisAmount, err := amount.NewRandomRevealedAmount(genesisSupply)
	if err != nil {
		return fmt.Errorf("failed to build genesis amount: %w", err)
	}
	fmt.Printf("Minted genesis dbc %x for %d\n", genesisOwner.DbcId().Bytes(), genesisSupply)

	node := spentbook.NewSpentbookNode(genesisOwner.DbcId(), genesisAmount.BlindedAmount())

	alice, err := randomOwnerOnce()
	if err != nil {
		return fmt.Errorf("failed to generate alice's owner key: %w", err)
	}
	bob, err := randomOwnerOnce()
	if err != nil {
		return fmt.Errorf("failed to generate bob's owner key: %w", err)
	}

	aliceShare := genesisSupply / 4
	bobShare := genesisSupply - aliceShare

	txBuilder := builder.NewTransactionBuilder()
	txBuilder.AddInputBySecrets(genesisOwner.DerivedKey(), genesisAmount, dbctx.DbcTransaction{})
	txBuilder.AddOutputByAmount(aliceShare, alice)
	txBuilder.AddOutputByAmount(bobShare, bob)

	dbcBuilder, err := txBuilder.Build()
	if err != nil {
		return fmt.Errorf("failed to sign split transaction: %w", err)
	}
	tx := dbcBuilder.Transaction()
	fmt.Printf("Signed split transaction %x\n", tx.Hash())

	proof := dbc.NewSpentProof(spentbookSigner, genesisOwner.DbcId(), tx.Hash(), genesisAmount.BlindedAmount())
	dbcBuilder.AddSpentProof(proof).AddSpentTransaction(tx)

	spendSig := genesisOwner.DerivedKey().Sign(tx.Hash().Bytes())
	signedSpend := spentbook.SignedSpend{
		DbcId:       genesisOwner.DbcId(),
		SpentTxHash: tx.Hash(),
		Signature:   spendSig,
	}
	if err := node.LogSpent(tx, signedSpend); err != nil {
		return fmt.Errorf("spentbook rejected the spend: %w", err)
	}
	fmt.Println("Spentbook recorded the spend.")

	materialized, err := dbcBuilder.Build(verifier)
	if err != nil {
		return fmt.Errorf("failed to materialize output dbcs: %w", err)
	}

	for _, m := range materialized {
		if err := m.Dbc.Verify(verifier); err != nil {
			return fmt.Errorf("materialized dbc failed verification: %w", err)
		}
		fmt.Printf("Dbc %x owned by %x worth %d verified ok\n",
			m.Dbc.DbcId().Bytes(), m.OwnerOnce.OwnerBase.PublicAddress().Bytes(), m.RevealedAmount.Value)
	}

	return nil
}

func randomOwnerOnce() (blskey.OwnerOnce, error) {
	base, err := blskey.NewRandomOwnerBase()
	if err != nil {
		return blskey.OwnerOnce{}, err
	}
	index, err := blskey.NewRandomDerivationIndex()
	if err != nil {
		return blskey.OwnerOnce{}, err
	}
	return blskey.OwnerOnce{OwnerBase: base, DerivationIndex: index}, nil
}

func randomDerivedKey() (blskey.DerivedKey, error) {
	owner, err := randomOwnerOnce()
	if err != nil {
		return blskey.DerivedKey{}, err
	}
	return owner.DerivedKey(), nil
}
