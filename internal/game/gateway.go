// internal/game/gateway.go — interfaces the turn engine consumes.
package game

import (
	"context"

	"github.com/PirateGame/game-pod/internal/models"
)

// Store is the persistence gateway for room and player fields. Every call is
// its own atomic unit; the engine never assumes multi-field transactions.
// Composite moves (money between two players) are sequential read-then-write,
// safe only because a room's loop is the sole mutator of that room's fields.
//
// Accessors return models.ErrNotFound for a missing room or player.
type Store interface {
	RoomNames(ctx context.Context) ([]string, error)
	RoomState(ctx context.Context, room string) (models.RoomState, error)
	SetRoomState(ctx context.Context, room string, state models.RoomState) error
	TurnNumber(ctx context.Context, room string) (int, error)
	SetTurnNumber(ctx context.Context, room string, turn int) error
	BoardSize(ctx context.Context, room string) (sizeX, sizeY int, err error)
	DecisionTime(ctx context.Context, room string) (seconds int, err error)
	SetCurrentTile(ctx context.Context, room string, tile int) error

	Queue(ctx context.Context, room string) ([]models.Task, error)
	SetQueue(ctx context.Context, room string, queue []models.Task) error
	TileQueue(ctx context.Context, room string) ([]int, error)
	SetTileQueue(ctx context.Context, room string, tiles []int) error
	TilesRemaining(ctx context.Context, room string) ([]int, error)
	SetTilesRemaining(ctx context.Context, room string, tiles []int) error
	ScoreHistory(ctx context.Context, room string) (models.ScoreHistory, error)
	SetScoreHistory(ctx context.Context, room string, history models.ScoreHistory) error

	PlayerNames(ctx context.Context, room string) ([]string, error)
	Board(ctx context.Context, room, player string) ([]models.Cell, error)
	Money(ctx context.Context, room, player string) (int, error)
	SetMoney(ctx context.Context, room, player string, money int) error
	Bank(ctx context.Context, room, player string) (int, error)
	SetBank(ctx context.Context, room, player string, bank int) error
	Shields(ctx context.Context, room, player string) (int, error)
	SetShields(ctx context.Context, room, player string, shields int) error
	Mirrors(ctx context.Context, room, player string) (int, error)
	SetMirrors(ctx context.Context, room, player string, mirrors int) error
	IsAI(ctx context.Context, room, player string) (bool, error)
}

// Broadcaster delivers events to every socket in a room, or privately to the
// sockets of one player in a room. Delivery failures are the transport's
// problem; the engine fires and forgets.
type Broadcaster interface {
	ToRoom(ctx context.Context, room, event string, payload any)
	ToPlayer(ctx context.Context, room, player, event string, payload any)
}

// ActionRecorder receives observational records of engine activity (turn
// score snapshots, task resolutions). Implementations must not block the
// tick; the engine invokes them asynchronously with a short deadline.
type ActionRecorder interface {
	RecordTurn(ctx context.Context, room string, turn int, scores map[string]int) error
	RecordTask(ctx context.Context, room string, task models.Task) error
}

// Named events consumed by clients.
const (
	EventGameStart         = "gameStart"
	EventGameStateUpdate   = "gameStateUpdate"
	EventNotice            = "event"
	EventQuestion          = "question"
	EventPlayerListUpdated = "playerListUpdated"
)

// NoticePayload carries a one-line notice shown to a room or a player.
type NoticePayload struct {
	Title string `json:"title"`
}

// QuestionPayload carries a pending decision prompt for one player.
type QuestionPayload struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}
