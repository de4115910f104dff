package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PirateGame/game-pod/internal/auth"
	"github.com/PirateGame/game-pod/internal/game"
	"github.com/PirateGame/game-pod/internal/models"
)

// Store is the slice of the persistence layer the handlers touch.
type Store interface {
	CreateRoom(ctx context.Context, room models.Room) error
	CreatePlayer(ctx context.Context, player models.Player) error
	RoomState(ctx context.Context, room string) (models.RoomState, error)
	SetRoomState(ctx context.Context, room string, state models.RoomState) error
	TurnNumber(ctx context.Context, room string) (int, error)
	CurrentTile(ctx context.Context, room string) (int, error)
	PlayerNames(ctx context.Context, room string) ([]string, error)
	Board(ctx context.Context, room, player string) ([]models.Cell, error)
	SetBoard(ctx context.Context, room, player string, board []models.Cell) error
	SetTeam(ctx context.Context, room, player string, ship, captain int) error
	Token(ctx context.Context, room, player string) (string, error)
	SetToken(ctx context.Context, room, player, token string) error
	AddAIPlayer(ctx context.Context, room string, board []models.Cell) (bool, error)
	Queue(ctx context.Context, room string) ([]models.Task, error)
	SetQueue(ctx context.Context, room string, queue []models.Task) error
}

// Starter launches a room's turn loop.
type Starter interface {
	Start(ctx context.Context, room string) error
}

// request is the inbound wire frame. Fields beyond action/room/player are
// action-specific and ignored elsewhere.
type request struct {
	Action string `json:"action"`
	Room   string `json:"room"`
	Player string `json:"player"`
	Token  string `json:"token,omitempty"`

	SizeX        int `json:"sizeX,omitempty"`
	SizeY        int `json:"sizeY,omitempty"`
	DecisionTime int `json:"decisionTime,omitempty"`

	Board   []models.Cell `json:"board,omitempty"`
	Ship    int           `json:"ship,omitempty"`
	Captain int           `json:"captain,omitempty"`
	Option  string        `json:"option,omitempty"`
}

// reply acknowledges one inbound request on the same socket.
type reply struct {
	Action  string     `json:"action"`
	OK      bool       `json:"ok"`
	Error   string     `json:"error,omitempty"`
	Token   string     `json:"token,omitempty"`
	Players []string   `json:"players,omitempty"`
	Game    *gameState `json:"game,omitempty"`
}

// gameState is the point-in-time room summary a reconnecting client asks
// for to redraw its screen.
type gameState struct {
	State models.RoomState `json:"state"`
	Turn  int              `json:"turn"`
	Tile  int              `json:"tile"`
}

// Server upgrades HTTP requests to sockets and dispatches their messages.
type Server struct {
	hub      *Hub
	store    Store
	issuer   *auth.Issuer
	registry Starter
	log      *logrus.Logger
}

// NewServer wires the socket endpoint.
func NewServer(hub *Hub, store Store, issuer *auth.Issuer, registry Starter, log *logrus.Logger) *Server {
	return &Server{hub: hub, store: store, issuer: issuer, registry: registry, log: log}
}

// ServeHTTP accepts a websocket and services it until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.WithError(err).Warn("ws: accept failed")
		return
	}

	sess := &session{id: uuid.New(), conn: conn}
	defer func() {
		s.hub.detach(sess)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.log.WithError(err).WithField("session", sess.id).Debug("ws: read ended")
			}
			return
		}

		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			s.respond(ctx, sess, reply{Action: "error", Error: "malformed message"})
			continue
		}
		s.dispatch(ctx, sess, req)
	}
}

func (s *Server) dispatch(ctx context.Context, sess *session, req request) {
	var err error
	resp := reply{Action: req.Action, OK: true}

	switch req.Action {
	case "createRoom":
		err = s.createRoom(ctx, req)
	case "register":
		resp.Token, err = s.register(ctx, sess, req)
	case "join":
		err = s.join(ctx, sess, req)
	case "getPlayerList":
		resp.Players, err = s.store.PlayerNames(ctx, req.Room)
	case "getGameState":
		resp.Game, err = s.gameState(ctx, req.Room)
	case "submitBoard":
		err = s.submitBoard(ctx, sess, req)
	case "submitTeam":
		err = s.authorized(sess, req, func() error {
			return s.store.SetTeam(ctx, req.Room, req.Player, req.Ship, req.Captain)
		})
	case "addAI":
		err = s.addAI(ctx, sess, req)
	case "startGame":
		err = s.authorized(sess, req, func() error {
			return s.registry.Start(ctx, req.Room)
		})
	case "questionResponse":
		err = s.questionResponse(ctx, sess, req)
	default:
		err = errors.New("unknown action")
	}

	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"action": req.Action,
			"room":   req.Room,
			"player": req.Player,
		}).Warn("ws: action failed")
		resp.OK = false
		resp.Error = err.Error()
		resp.Token = ""
		resp.Players = nil
		resp.Game = nil
	}
	s.respond(ctx, sess, resp)
}

// authorized runs fn only for a session that has joined as the claimed
// player in the claimed room.
func (s *Server) authorized(sess *session, req request, fn func() error) error {
	if !sess.joined || sess.room != req.Room || sess.player != req.Player {
		return errors.New("not joined")
	}
	return fn()
}

// createRoom provisions a fresh lobby with the requested grid and decision
// window.
func (s *Server) createRoom(ctx context.Context, req request) error {
	if req.Room == "" || req.SizeX <= 0 || req.SizeY <= 0 || req.DecisionTime <= 0 {
		return errors.New("invalid room parameters")
	}
	return s.store.CreateRoom(ctx, models.Room{
		Name:         req.Room,
		SizeX:        req.SizeX,
		SizeY:        req.SizeY,
		State:        models.RoomLobby,
		DecisionTime: req.DecisionTime,
	})
}

// register creates the player in the lobby, issues their room token, and
// tells the room its roster changed. The socket is attached to the room so
// the caller sees subsequent lobby events.
func (s *Server) register(ctx context.Context, sess *session, req request) (string, error) {
	state, err := s.store.RoomState(ctx, req.Room)
	if err != nil {
		return "", err
	}
	if state != models.RoomLobby {
		return "", errors.New("room already started")
	}
	if err := s.store.CreatePlayer(ctx, models.Player{Room: req.Room, Name: req.Player}); err != nil {
		return "", err
	}
	token, err := s.issuer.Issue(req.Room, req.Player)
	if err != nil {
		return "", err
	}
	if err := s.store.SetToken(ctx, req.Room, req.Player, token); err != nil {
		return "", err
	}
	s.hub.attachRoom(sess, req.Room)
	s.hub.attachPlayer(sess, req.Room, req.Player)
	s.hub.ToRoom(ctx, req.Room, game.EventPlayerListUpdated, nil)
	return token, nil
}

// join re-attaches a socket to an existing registration: the token must
// verify and match the one on record.
func (s *Server) join(ctx context.Context, sess *session, req request) error {
	if err := s.issuer.Verify(req.Token, req.Room, req.Player); err != nil {
		return err
	}
	stored, err := s.store.Token(ctx, req.Room, req.Player)
	if err != nil {
		return err
	}
	if stored != req.Token {
		return auth.ErrInvalidToken
	}
	s.hub.attachRoom(sess, req.Room)
	s.hub.attachPlayer(sess, req.Room, req.Player)
	return nil
}

// submitBoard persists the player's layout; once every player has one the
// room moves to board-submission-complete and everyone is told.
func (s *Server) submitBoard(ctx context.Context, sess *session, req request) error {
	return s.authorized(sess, req, func() error {
		if err := s.store.SetBoard(ctx, req.Room, req.Player, req.Board); err != nil {
			return err
		}
		ready, err := s.allBoardsIn(ctx, req.Room)
		if err != nil || !ready {
			return err
		}
		if err := s.store.SetRoomState(ctx, req.Room, models.RoomBoardSubmission); err != nil {
			return err
		}
		s.hub.ToRoom(ctx, req.Room, game.EventGameStateUpdate, map[string]any{"state": models.RoomBoardSubmission})
		return nil
	})
}

// gameState assembles the room summary for a state-sync request.
func (s *Server) gameState(ctx context.Context, room string) (*gameState, error) {
	state, err := s.store.RoomState(ctx, room)
	if err != nil {
		return nil, err
	}
	turn, err := s.store.TurnNumber(ctx, room)
	if err != nil {
		return nil, err
	}
	tile, err := s.store.CurrentTile(ctx, room)
	if err != nil {
		return nil, err
	}
	return &gameState{State: state, Turn: turn, Tile: tile}, nil
}

func (s *Server) allBoardsIn(ctx context.Context, room string) (bool, error) {
	players, err := s.store.PlayerNames(ctx, room)
	if err != nil {
		return false, err
	}
	for _, name := range players {
		board, err := s.store.Board(ctx, room, name)
		if err != nil {
			return false, err
		}
		if len(board) == 0 {
			return false, nil
		}
	}
	return len(players) > 0, nil
}

// addAI seeds a synthetic player with the caller-supplied board.
func (s *Server) addAI(ctx context.Context, sess *session, req request) error {
	return s.authorized(sess, req, func() error {
		added, err := s.store.AddAIPlayer(ctx, req.Room, req.Board)
		if err != nil {
			return err
		}
		if !added {
			return errors.New("AI player limit reached")
		}
		s.hub.ToRoom(ctx, req.Room, game.EventPlayerListUpdated, nil)
		return nil
	})
}

// questionResponse records the player's answer on the first queued task
// still waiting on them. The turn loop picks it up on its next tick.
func (s *Server) questionResponse(ctx context.Context, sess *session, req request) error {
	return s.authorized(sess, req, func() error {
		queue, err := s.store.Queue(ctx, req.Room)
		if err != nil {
			return err
		}
		for i := range queue {
			if queue[i].Responder != req.Player || queue[i].Response != "" {
				continue
			}
			queue[i].Response = req.Option
			return s.store.SetQueue(ctx, req.Room, queue)
		}
		return errors.New("no pending question")
	})
}

func (s *Server) respond(ctx context.Context, sess *session, resp reply) {
	frame, err := json.Marshal(envelope{Event: "reply", Payload: resp})
	if err != nil {
		s.log.WithError(err).Error("ws: encoding reply")
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := sess.conn.Write(wctx, websocket.MessageText, frame); err != nil {
		s.log.WithError(err).WithField("session", sess.id).Debug("ws: reply write failed")
	}
}
