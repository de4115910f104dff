// Package database implements the persistence gateway on PostgreSQL.
//
// The turn engine consumes individual field accessors; each accessor is a
// single statement, which is the only atomicity the engine assumes.
// Collection-valued fields (queue, boards, tile pools, score history) are
// stored as jsonb and rewritten whole.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/PirateGame/game-pod/internal/models"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// ErrDuplicate is returned when creating a room or player that already exists.
var ErrDuplicate = errors.New("database: already exists")

// Store is a pgx-backed implementation of the game persistence gateway.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// Connect opens a connection pool against connString and pings it.
func Connect(ctx context.Context, connString string, log *logrus.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("database: opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	name            text PRIMARY KEY,
	state           int NOT NULL DEFAULT 0,
	size_x          int NOT NULL,
	size_y          int NOT NULL,
	turn_number     int NOT NULL DEFAULT 0,
	decision_time   int NOT NULL DEFAULT 30,
	current_tile    int NOT NULL DEFAULT -1,
	tiles_remaining jsonb NOT NULL DEFAULT '[]',
	tile_queue      jsonb NOT NULL DEFAULT '[]',
	queue           jsonb NOT NULL DEFAULT '[]',
	score_history   jsonb NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS players (
	room_name text NOT NULL REFERENCES rooms(name) ON DELETE CASCADE,
	name      text NOT NULL,
	money     int NOT NULL DEFAULT 0,
	bank      int NOT NULL DEFAULT 0,
	shields   int NOT NULL DEFAULT 0,
	mirrors   int NOT NULL DEFAULT 0,
	is_ai     boolean NOT NULL DEFAULT false,
	board     jsonb,
	token     text NOT NULL DEFAULT '',
	ship      int NOT NULL DEFAULT 0,
	captain   int NOT NULL DEFAULT 0,
	PRIMARY KEY (room_name, name)
);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// CreateRoom inserts a fresh room record. TilesRemaining defaults to the
// full grid when the caller left it empty.
func (s *Store) CreateRoom(ctx context.Context, room models.Room) error {
	tiles := room.TilesRemaining
	if len(tiles) == 0 {
		tiles = make([]int, room.SizeX*room.SizeY)
		for i := range tiles {
			tiles[i] = i
		}
	}
	tilesJSON, err := json.Marshal(tiles)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rooms (name, state, size_x, size_y, turn_number, decision_time, current_tile, tiles_remaining)
		 VALUES ($1, $2, $3, $4, $5, $6, -1, $7)`,
		room.Name, int(room.State), room.SizeX, room.SizeY, room.TurnNumber, room.DecisionTime, tilesJSON)
	if isUnique(err) {
		return ErrDuplicate
	}
	return err
}

// CreatePlayer inserts a player into a room.
func (s *Store) CreatePlayer(ctx context.Context, player models.Player) error {
	boardJSON, err := json.Marshal(player.Board)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO players (room_name, name, money, bank, shields, mirrors, is_ai, board)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		player.Room, player.Name, player.Money, player.Bank, player.Shields, player.Mirrors, player.IsAI, boardJSON)
	if isUnique(err) {
		return ErrDuplicate
	}
	return err
}

// getScalar reads one column for a room.
func getScalar[T any](ctx context.Context, s *Store, query, room string) (T, error) {
	var v T
	err := s.pool.QueryRow(ctx, query, room).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return v, models.ErrNotFound
	}
	return v, err
}

// getPlayerScalar reads one column for a player in a room.
func getPlayerScalar[T any](ctx context.Context, s *Store, query, room, player string) (T, error) {
	var v T
	err := s.pool.QueryRow(ctx, query, room, player).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return v, models.ErrNotFound
	}
	return v, err
}

// exec runs an update and converts zero affected rows into ErrNotFound.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// getJSON reads a jsonb room column into out.
func (s *Store) getJSON(ctx context.Context, query, room string, out any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, room).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// setJSON writes a jsonb room column.
func (s *Store) setJSON(ctx context.Context, query, room string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.exec(ctx, query, raw, room)
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
