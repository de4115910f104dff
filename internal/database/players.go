// internal/database/players.go — per-(room,player) field accessors.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/PirateGame/game-pod/internal/models"
)

// maxAIPlayers caps how many synthetic players a room may hold.
const maxAIPlayers = 4

// mapNoRows converts pgx's no-rows sentinel into the gateway's not-found.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

// PlayerNames lists player names in a room in join order.
func (s *Store) PlayerNames(ctx context.Context, room string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM players WHERE room_name = $1 ORDER BY name`, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Board reads a player's personal board layout. An unsubmitted board reads
// as nil with no error distinct from a missing player.
func (s *Store) Board(ctx context.Context, room, player string) ([]models.Cell, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT board FROM players WHERE room_name = $1 AND name = $2`, room, player).Scan(&raw)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var board []models.Cell
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("database: decoding board for %s/%s: %w", room, player, err)
	}
	return board, nil
}

// SetBoard persists a player's board layout.
func (s *Store) SetBoard(ctx context.Context, room, player string, board []models.Cell) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return s.exec(ctx,
		`UPDATE players SET board = $1 WHERE room_name = $2 AND name = $3`, raw, room, player)
}

// Money reads a player's stash.
func (s *Store) Money(ctx context.Context, room, player string) (int, error) {
	return getPlayerScalar[int](ctx, s, `SELECT money FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// SetMoney persists a player's stash.
func (s *Store) SetMoney(ctx context.Context, room, player string, money int) error {
	return s.exec(ctx, `UPDATE players SET money = $1 WHERE room_name = $2 AND name = $3`, money, room, player)
}

// Bank reads a player's banked total.
func (s *Store) Bank(ctx context.Context, room, player string) (int, error) {
	return getPlayerScalar[int](ctx, s, `SELECT bank FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// SetBank persists a player's banked total.
func (s *Store) SetBank(ctx context.Context, room, player string, bank int) error {
	return s.exec(ctx, `UPDATE players SET bank = $1 WHERE room_name = $2 AND name = $3`, bank, room, player)
}

// Shields reads a player's shield charges.
func (s *Store) Shields(ctx context.Context, room, player string) (int, error) {
	return getPlayerScalar[int](ctx, s, `SELECT shields FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// SetShields persists a player's shield charges.
func (s *Store) SetShields(ctx context.Context, room, player string, shields int) error {
	return s.exec(ctx, `UPDATE players SET shields = $1 WHERE room_name = $2 AND name = $3`, shields, room, player)
}

// Mirrors reads a player's mirror charges.
func (s *Store) Mirrors(ctx context.Context, room, player string) (int, error) {
	return getPlayerScalar[int](ctx, s, `SELECT mirrors FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// SetMirrors persists a player's mirror charges.
func (s *Store) SetMirrors(ctx context.Context, room, player string, mirrors int) error {
	return s.exec(ctx, `UPDATE players SET mirrors = $1 WHERE room_name = $2 AND name = $3`, mirrors, room, player)
}

// IsAI reports whether the player is synthetic.
func (s *Store) IsAI(ctx context.Context, room, player string) (bool, error) {
	return getPlayerScalar[bool](ctx, s, `SELECT is_ai FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// Token reads a player's room token.
func (s *Store) Token(ctx context.Context, room, player string) (string, error) {
	return getPlayerScalar[string](ctx, s, `SELECT token FROM players WHERE room_name = $1 AND name = $2`, room, player)
}

// SetToken persists a player's room token.
func (s *Store) SetToken(ctx context.Context, room, player, token string) error {
	return s.exec(ctx, `UPDATE players SET token = $1 WHERE room_name = $2 AND name = $3`, token, room, player)
}

// SetTeam persists a player's ship and captain picks.
func (s *Store) SetTeam(ctx context.Context, room, player string, ship, captain int) error {
	return s.exec(ctx, `UPDATE players SET ship = $1, captain = $2 WHERE room_name = $3 AND name = $4`, ship, captain, room, player)
}

// AddAIPlayer creates the next synthetic player ("AI 1", "AI 2", ...) with
// the supplied board. Returns false without error once the room is at the
// AI cap.
func (s *Store) AddAIPlayer(ctx context.Context, room string, board []models.Cell) (bool, error) {
	count, err := getScalar[int](ctx, s, `SELECT count(*) FROM players WHERE room_name = $1 AND is_ai`, room)
	if err != nil {
		return false, err
	}
	if count >= maxAIPlayers {
		return false, nil
	}
	player := models.Player{
		Room:  room,
		Name:  fmt.Sprintf("AI %d", count+1),
		IsAI:  true,
		Board: board,
	}
	if err := s.CreatePlayer(ctx, player); err != nil {
		return false, err
	}
	return true, nil
}
