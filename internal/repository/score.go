package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

// Both backends persist the counters under these two keys and nothing else.
const (
	Player1ScoreKey = "player1Score"
	Player2ScoreKey = "player2Score"
)

var tracer = otel.Tracer("repository.score")

func startSpan(ctx context.Context, name, system string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("db.system", system),
	))
}

type ScoreRepository interface {
	Load(ctx context.Context) (entity.Scores, error)
	Save(ctx context.Context, scores entity.Scores) error
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

// Load reads both counters. Missing keys and values that are not non-negative integers read as zero.
func (that *dbScore) Load(ctx context.Context) (entity.Scores, error) {
	ctx, span := startSpan(ctx, "ScoreRepository.Load", "redis")
	defer span.End()

	values, err := that.client.MGet(ctx, Player1ScoreKey, Player2ScoreKey).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get scores")
		return entity.Scores{}, fmt.Errorf("failed to get scores: %w", err)
	}

	scores := entity.Scores{}
	if len(values) == 2 {
		scores.Player1 = parseScoreValue(values[0])
		scores.Player2 = parseScoreValue(values[1])
	}

	return scores, nil
}

func (that *dbScore) Save(ctx context.Context, scores entity.Scores) error {
	ctx, span := startSpan(ctx, "ScoreRepository.Save", "redis")
	defer span.End()

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, Player1ScoreKey, strconv.Itoa(scores.Player1), 0)
		pipe.Set(ctx, Player2ScoreKey, strconv.Itoa(scores.Player2), 0)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set scores")
		return fmt.Errorf("failed to set scores: %w", err)
	}

	return nil
}

func parseScoreValue(value any) int {
	raw, ok := value.(string)
	if !ok {
		return 0
	}
	return parseScore(raw)
}

func parseScore(raw string) int {
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 {
		return 0
	}
	return score
}
