// Package archive persists completed games to PostgreSQL.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id     UUID PRIMARY KEY,
	room_code   TEXT NOT NULL,
	winner      TEXT NOT NULL,
	day_number  INT NOT NULL,
	seats       JSONB NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS game_logs (
	id        BIGSERIAL PRIMARY KEY,
	game_id   UUID NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
	seq       INT NOT NULL,
	day       INT NOT NULL,
	phase     TEXT NOT NULL,
	kind      TEXT NOT NULL,
	channel   TEXT NOT NULL,
	seat      INT NOT NULL,
	content   TEXT NOT NULL,
	logged_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_logs_game ON game_logs(game_id, seq);
`

// Archive stores finished games in PostgreSQL.
type Archive struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return &Archive{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (a *Archive) Close() {
	a.pool.Close()
}

// seatRecord is the JSON shape stored per seat in the games table.
type seatRecord struct {
	Seat        int    `json:"seat"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsAlive     bool   `json:"is_alive"`
	IsAutomated bool   `json:"is_automated"`
	DeathReason string `json:"death_reason,omitempty"`
	DeathDay    int    `json:"death_day,omitempty"`
}

func seatRecords(in *game.Instance) []seatRecord {
	records := make([]seatRecord, 0, game.SeatCount)
	for n := 1; n <= game.SeatCount; n++ {
		seat := in.SeatAt(n)
		if seat == nil {
			continue
		}
		records = append(records, seatRecord{
			Seat:        seat.Number,
			PlayerID:    seat.PlayerID,
			DisplayName: seat.DisplayName,
			Role:        seat.Role.Name(),
			IsAlive:     seat.IsAlive,
			IsAutomated: seat.IsAutomated,
			DeathReason: string(seat.DeathReason),
			DeathDay:    seat.DeathDay,
		})
	}
	return records
}

// ArchiveGame writes the finished game and its full log to the database.
func (a *Archive) ArchiveGame(ctx context.Context, in *game.Instance) error {
	seats, err := json.Marshal(seatRecords(in))
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO games (game_id, room_code, winner, day_number, seats, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id) DO NOTHING
	`, in.GameID, in.RoomCode, string(in.Winner), in.DayNumber, seats, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert game %s: %w", in.GameID, err)
	}

	for seq, entry := range in.Logs {
		_, err = tx.Exec(ctx, `
			INSERT INTO game_logs (game_id, seq, day, phase, kind, channel, seat, content, logged_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, in.GameID, seq, entry.Day, entry.Phase, string(entry.Kind),
			entry.Channel, entry.Seat, entry.Content, entry.Timestamp)
		if err != nil {
			return fmt.Errorf("insert log %d for game %s: %w", seq, in.GameID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}

	a.logger.Info("Game archived",
		zap.String("gameId", in.GameID),
		zap.String("roomCode", in.RoomCode),
		zap.Int("logEntries", len(in.Logs)))
	return nil
}
