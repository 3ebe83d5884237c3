// Package storage implements optional PostgreSQL-backed persistence for a
// spentbook node. The core packages never import this: per the system's
// no-I/O core invariant, only the demo daemon wires it in.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDBConnection = errors.New("database connection error")
)

// PostgresStore persists a spentbook node's dbc-id-to-tx-hash index and
// output index. Nothing in this tree loads stored entries back into a
// SpentbookNode; cmd/dbcd writes and reads back only the genesis entry.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "dbc",
		Password: "",
		Database: "dbc",
		SSLMode:  "disable",
		MaxConns: 20,
	}
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, cfg *Config) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// SaveSpend records that dbcID was spent in the transaction with the given
// hash and serialized transaction bytes.
func (s *PostgresStore) SaveSpend(ctx context.Context, dbcID []byte, txHash []byte, txBytes []byte) error {
	query := `
		INSERT INTO spends (dbc_id, tx_hash, tx_bytes)
		VALUES ($1, $2, $3)
		ON CONFLICT (dbc_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, dbcID, txHash, txBytes)
	if err != nil {
		return fmt.Errorf("failed to save spend: %w", err)
	}
	return nil
}

// LoadSpend returns the transaction hash and bytes recorded for dbcID, if
// any.
func (s *PostgresStore) LoadSpend(ctx context.Context, dbcID []byte) (txHash []byte, txBytes []byte, err error) {
	query := `SELECT tx_hash, tx_bytes FROM spends WHERE dbc_id = $1`

	err = s.pool.QueryRow(ctx, query, dbcID).Scan(&txHash, &txBytes)
	if err == pgx.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load spend: %w", err)
	}
	return txHash, txBytes, nil
}

// SaveOutput records a blinded output produced by some transaction, keyed
// by the DbcId of the output it belongs to.
func (s *PostgresStore) SaveOutput(ctx context.Context, dbcID []byte, outputBytes []byte) error {
	query := `
		INSERT INTO outputs (dbc_id, output_bytes)
		VALUES ($1, $2)
		ON CONFLICT (dbc_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, dbcID, outputBytes)
	if err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	return nil
}

// LoadOutput returns the serialized blinded output recorded for dbcID, if
// any.
func (s *PostgresStore) LoadOutput(ctx context.Context, dbcID []byte) ([]byte, error) {
	query := `SELECT output_bytes FROM outputs WHERE dbc_id = $1`

	var outputBytes []byte
	err := s.pool.QueryRow(ctx, query, dbcID).Scan(&outputBytes)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load output: %w", err)
	}
	return outputBytes, nil
}

// Schema is the DDL the demo daemon applies on startup. A real deployment
// would run this via a migration tool rather than inline SQL.
const Schema = `
CREATE TABLE IF NOT EXISTS spends (
	dbc_id   BYTEA PRIMARY KEY,
	tx_hash  BYTEA NOT NULL,
	tx_bytes BYTEA NOT NULL
);
CREATE TABLE IF NOT EXISTS outputs (
	dbc_id      BYTEA PRIMARY KEY,
	output_bytes BYTEA NOT NULL
);
`

// ApplySchema creates the tables above if they do not already exist.
func (s *PostgresStore) ApplySchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}
