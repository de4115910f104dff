// Package cache publishes engine activity records to Redis for the
// historian. Records are append-only lists keyed by room; nothing in the
// game core ever reads them back.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/PirateGame/game-pod/internal/models"
)

// TurnRecord is one per-turn score snapshot.
type TurnRecord struct {
	Room      string         `json:"room"`
	Turn      int            `json:"turn"`
	Scores    map[string]int `json:"scores"`
	Timestamp int64          `json:"timestamp"`
}

// TaskRecord is one resolved interactive task.
type TaskRecord struct {
	Room      string      `json:"room"`
	Task      models.Task `json:"task"`
	Timestamp int64       `json:"timestamp"`
}

// Recorder appends records to Redis lists.
type Recorder struct {
	rdb *redis.Client
	log *logrus.Logger
}

// New connects a recorder to the Redis instance at addr.
func New(addr string, log *logrus.Logger) *Recorder {
	return &Recorder{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		log: log,
	}
}

// Ping verifies the connection.
func (r *Recorder) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (r *Recorder) Close() error {
	return r.rdb.Close()
}

// RecordTurn appends a score snapshot to the room's turn list.
func (r *Recorder) RecordTurn(ctx context.Context, room string, turn int, scores map[string]int) error {
	rec := TurnRecord{Room: room, Turn: turn, Scores: scores, Timestamp: time.Now().UnixMilli()}
	return r.push(ctx, fmt.Sprintf("piratepod:turns:%s", room), rec)
}

// RecordTask appends a resolved task to the room's task list.
func (r *Recorder) RecordTask(ctx context.Context, room string, task models.Task) error {
	rec := TaskRecord{Room: room, Task: task, Timestamp: time.Now().UnixMilli()}
	return r.push(ctx, fmt.Sprintf("piratepod:tasks:%s", room), rec)
}

func (r *Recorder) push(ctx context.Context, key string, rec any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := r.rdb.RPush(ctx, key, raw).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Error("cache: record push failed")
		return err
	}
	return nil
}
