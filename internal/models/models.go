// Package models defines the persisted records shared by the game core,
// the database layer, and the websocket transport.
package models

import "errors"

// ErrNotFound is returned by store accessors when the requested room or
// player does not exist. Callers are expected to treat it as a normal
// condition, not a fault.
var ErrNotFound = errors.New("models: not found")

// RoomState tracks a room through its lifecycle. Persisted as an integer.
type RoomState int

const (
	RoomLobby           RoomState = 0 // Players registering, boards not yet placed.
	RoomBoardSubmission RoomState = 1 // Every player has submitted a board.
	RoomActive          RoomState = 2 // Turn loop running.
	RoomFinished        RoomState = 3 // Turn cap reached; loop stopped.
)

// String returns a human-readable room state for logs.
func (s RoomState) String() string {
	switch s {
	case RoomLobby:
		return "lobby"
	case RoomBoardSubmission:
		return "board_submission"
	case RoomActive:
		return "active"
	case RoomFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Room is one game session, keyed by name. The turn loop never loads the
// whole record at once; it reads and writes individual fields through the
// store. The full struct exists for room creation and the transport layer.
type Room struct {
	Name           string       `json:"name"`
	SizeX          int          `json:"sizeX"`
	SizeY          int          `json:"sizeY"`
	State          RoomState    `json:"state"`
	TurnNumber     int          `json:"turnNumber"`
	DecisionTime   int          `json:"decisionTime"` // Seconds granted per player decision.
	CurrentTile    int          `json:"currentTile"`
	TilesRemaining []int        `json:"tilesRemaining"`
	TileQueue      []int        `json:"tileQueue"`
	Queue          []Task       `json:"queue"`
	ScoreHistory   ScoreHistory `json:"scoreHistory"`
}

// ScoreHistory maps turn number -> player name -> net worth at that turn.
type ScoreHistory map[int]map[string]int

// Player is one participant in a room. Name is unique within the room.
type Player struct {
	Room    string `json:"room"`
	Name    string `json:"name"`
	Money   int    `json:"money"`
	Bank    int    `json:"bank"`
	Shields int    `json:"shields"`
	Mirrors int    `json:"mirrors"`
	IsAI    bool   `json:"isAI"`
	Board   []Cell `json:"board,omitempty"`
	Ship    int    `json:"ship"`
	Captain int    `json:"captain"`
}

// Cell is one square of a player's personal board. IDs partition the grid
// exactly once per player: unique within 0..SizeX*SizeY-1.
type Cell struct {
	ID      int         `json:"id"`
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Content TileContent `json:"content"`
}

// TileContent is the closed set of tile effects a board cell can carry.
// Values match what clients submit on their boards.
type TileContent string

const (
	TileGold200        TileContent = "200"
	TileGold1000       TileContent = "1000"
	TileGold3000       TileContent = "3000"
	TileGold5000       TileContent = "5000"
	TileDouble         TileContent = "Double"
	TileBomb           TileContent = "Bomb"
	TileBank           TileContent = "Bank"
	TileShield         TileContent = "Shield"
	TileMirror         TileContent = "Mirror"
	TileSteal          TileContent = "Steal"
	TileKill           TileContent = "Kill"
	TileSwap           TileContent = "Swap"
	TilePresent        TileContent = "Present"
	TileChooseNextTile TileContent = "Choose Next Tile"
	// TileTeamKill is recognized but produces only a notice; the team wipe
	// mechanic never shipped.
	TileTeamKill TileContent = "Skull and Crossbones"
)

// TaskKind identifies the interactive effect a task resolves.
type TaskKind string

const (
	TaskSteal          TaskKind = "Steal"
	TaskKill           TaskKind = "Kill"
	TaskSwap           TaskKind = "Swap"
	TaskPresent        TaskKind = "Present"
	TaskChooseNextTile TaskKind = "Choose Next Tile"
)

// Hostile reports whether the kind targets another player's holdings and can
// therefore be mirrored or shielded.
func (k TaskKind) Hostile() bool {
	return k == TaskSteal || k == TaskKill || k == TaskSwap
}

// TaskPhase tags which decision a task is waiting on. A task always carries
// the full envelope; the phase removes any ambiguity about whether the
// target has been fixed yet.
type TaskPhase string

const (
	// PhaseTargetSelect: the initiator is choosing who (or which tile) the
	// effect lands on. Target is empty.
	PhaseTargetSelect TaskPhase = "target_select"
	// PhaseThreatResponse: the currently-threatened side is choosing between
	// Do Nothing, Mirror, and Shield. Target is fixed.
	PhaseThreatResponse TaskPhase = "threat_response"
)

// Canonical option strings offered during the threat-response phase.
const (
	OptionDoNothing = "Do Nothing"
	OptionMirror    = "Mirror"
	OptionShield    = "Shield"
)

// Task is a unit of deferred interactive resolution sitting in a room's
// queue. Only the head of the queue is ever being emitted or awaited.
type Task struct {
	Phase     TaskPhase `json:"phase"`
	Kind      TaskKind  `json:"kind"`
	Initiator string    `json:"initiator"`
	Target    string    `json:"target"`
	Responder string    `json:"responder"`
	Title     string    `json:"title"`
	Options   []string  `json:"options"`
	Response  string    `json:"response,omitempty"`
	Deadline  int64     `json:"deadline"` // Unix milliseconds.
	Mirrored  int       `json:"mirrored"`
	Emitted   bool      `json:"emitted"`
}

// Valid checks the envelope fields every queued task must carry. A task
// failing this check is dropped by the scheduler.
func (t *Task) Valid() bool {
	if t.Initiator == "" || t.Responder == "" || t.Kind == "" {
		return false
	}
	if len(t.Options) == 0 || t.Deadline == 0 {
		return false
	}
	switch t.Phase {
	case PhaseTargetSelect:
		return true
	case PhaseThreatResponse:
		return t.Target != ""
	default:
		return false
	}
}

// Threatened returns the player currently bearing the pending effect.
// Mirror parity: even = target suffers as originally intended, odd = the
// effect has been reflected onto the initiator.
func (t *Task) Threatened() string {
	if t.Mirrored%2 == 0 {
		return t.Target
	}
	return t.Initiator
}

// Threatener returns the player on whose behalf the pending effect resolves.
func (t *Task) Threatener() string {
	if t.Mirrored%2 == 0 {
		return t.Initiator
	}
	return t.Target
}
