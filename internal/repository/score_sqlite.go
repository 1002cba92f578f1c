package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/codes"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

type sqliteScore struct {
	conn *sql.DB
}

// NewSQLiteScoreRepository stores the counters as rows of the scores table.
func NewSQLiteScoreRepository(conn *sql.DB) ScoreRepository {
	return &sqliteScore{
		conn: conn,
	}
}

func (that *sqliteScore) Load(ctx context.Context) (entity.Scores, error) {
	ctx, span := startSpan(ctx, "SQLiteScoreRepository.Load", "sqlite")
	defer span.End()

	query := `SELECT key, value FROM scores WHERE key IN (?, ?)`

	rows, err := that.conn.QueryContext(ctx, query, Player1ScoreKey, Player2ScoreKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query scores")
		return entity.Scores{}, fmt.Errorf("can't query scores: %w", err)
	}
	defer rows.Close()

	scores := entity.Scores{}
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return entity.Scores{}, fmt.Errorf("can't scan score: %w", err)
		}

		switch key {
		case Player1ScoreKey:
			scores.Player1 = parseScore(value)
		case Player2ScoreKey:
			scores.Player2 = parseScore(value)
		}
	}

	if err = rows.Err(); err != nil {
		return entity.Scores{}, fmt.Errorf("can't read scores: %w", err)
	}

	return scores, nil
}

func (that *sqliteScore) Save(ctx context.Context, scores entity.Scores) error {
	ctx, span := startSpan(ctx, "SQLiteScoreRepository.Save", "sqlite")
	defer span.End()

	query := `INSERT INTO scores (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	for key, score := range map[string]int{Player1ScoreKey: scores.Player1, Player2ScoreKey: scores.Player2} {
		if _, err = tx.ExecContext(ctx, query, key, strconv.Itoa(score)); err != nil {
			_ = tx.Rollback()

			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save scores")
			return fmt.Errorf("can't save score %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit scores: %w", err)
	}

	return nil
}
