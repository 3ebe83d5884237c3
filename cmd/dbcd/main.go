// Command dbcd runs a demo spentbook node: a single double-spend ledger
// that mints a genesis dbc on startup and serves no network interface of
// its own — cmd/dbc-cli does not talk to it but runs its own in-process
// node. A production
// deployment would put a spentbook node like this one behind threshold
// BLS signing and a real RPC transport; neither exists in this tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/spentbook"
	"github.com/ccoin/dbc/internal/storage"
)

const (
	version = "0.1.0"
	banner  = `
  ____  ____   ____      _
 |  _ \| __ ) / ___|  __| | __ _  ___ _ __
 | | | |  _ \| |     / _  |/ _  |/ _ \ '_ \
 | |_| | |_) | |___ | (_| | (_| |  __/ | | |
 |____/|____/ \____(_)__,_|\__,_|\___|_| |_|

  dbcd v%s
  demo spentbook node
`
)

// Config holds node configuration.
type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	Persist bool

	LogLevel string
}

// genesisSupply is the total amount minted into the demo genesis dbc.
const genesisSupply = 1_000_000

func main() {
	// Parse flags
	cfg := parseFlags()

	// Print banner
	fmt.Printf(banner, version)

	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	// Initialize components
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "PostgreSQL host")
	flag.IntVar(&cfg.DBPort, "db-port", 5432, "PostgreSQL port")
	flag.StringVar(&cfg.DBUser, "db-user", "dbc", "PostgreSQL user")
	flag.StringVar(&cfg.DBPassword, "db-password", "", "PostgreSQL password")
	flag.StringVar(&cfg.DBName, "db-name", "dbc", "PostgreSQL database name")

	flag.BoolVar(&cfg.Persist, "persist", false, "write the genesis output to PostgreSQL and read it back (the spentbook itself stays in memory)")

	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flag.Parse()

	return cfg
}

func run(ctx context.Context, cfg *Config) error {
	fmt.Println("Minting genesis dbc...")

	genesisOwner, err := blskey.NewRandomOwnerBase()
	if err != nil {
		return fmt.Errorf("failed to generate genesis owner: %w", err)
	}
	genesisIndex, err := blskey.NewRandomDerivationIndex()
	if err != nil {
		return fmt.Errorf("failed to generate genesis derivation index: %w", err)
	}
	genesisOwnerOnce := blskey.OwnerOnce{OwnerBase: genesisOwner, DerivationIndex: genesisIndex}

	genesisAmount, err := amount.NewRandomRevealedAmount(genesisSupply)
	if err != nil {
		return fmt.Errorf("failed to build genesis amount: %w", err)
	}

	genesisDbcId := genesisOwnerOnce.DbcId()
	fmt.Printf("Genesis dbc id: %x\n", genesisDbcId.Bytes())
	fmt.Printf("Genesis amount: %d\n", genesisSupply)

	node := spentbook.NewSpentbookNode(genesisDbcId, genesisAmount.BlindedAmount())

	if cfg.Persist {
		fmt.Println("Connecting to database...")
		dbConfig := &storage.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  "disable",
			MaxConns: 20,
		}
		store, err := storage.NewPostgresStore(ctx, dbConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		if err := store.ApplySchema(ctx); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		fmt.Println("Database connected.")

		genesisBlinded := genesisAmount.BlindedAmount()
		if err := store.SaveOutput(ctx, genesisDbcId.Bytes(), genesisBlinded.Bytes()); err != nil {
			return fmt.Errorf("failed to persist genesis output: %w", err)
		}
		loaded, err := store.LoadOutput(ctx, genesisDbcId.Bytes())
		if err != nil {
			return fmt.Errorf("failed to load genesis output back: %w", err)
		}
		fmt.Printf("Genesis output persisted (%d bytes).\n", len(loaded))
	}

	fmt.Println("Spentbook node started successfully!")
	fmt.Printf("Spent entries: %d\n", len(node.Iterate()))
	fmt.Println("Press Ctrl+C to stop.")

	<-ctx.Done()

	fmt.Println("Node stopped.")
	return nil
}
