package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

type scoreRepo interface {
	Load(ctx context.Context) (entity.Scores, error)
	Save(ctx context.Context, scores entity.Scores) error
}

// Ledger keeps the win counts and display names of both slots across sessions.
// Every change is written through to the score store. A failed write is returned
// but the in-memory change is kept.
type Ledger struct {
	mu sync.RWMutex

	scoreRepo scoreRepo
	players   entity.Players
	scores    entity.Scores
}

func NewLedger(scoreRepo scoreRepo, players entity.Players) *Ledger {
	defaults := entity.DefaultPlayers()
	if strings.TrimSpace(players.Player1) == "" {
		players.Player1 = defaults.Player1
	}
	if strings.TrimSpace(players.Player2) == "" {
		players.Player2 = defaults.Player2
	}

	return &Ledger{
		scoreRepo: scoreRepo,
		players:   players,
	}
}

// Load reads the persisted counts. Negative values count as corrupt and read as zero;
// on a store error both counts stay at zero.
func (that *Ledger) Load(ctx context.Context) error {
	scores, err := that.scoreRepo.Load(ctx)

	that.mu.Lock()
	defer that.mu.Unlock()

	if err != nil {
		that.scores = entity.Scores{}
		return fmt.Errorf("failed to load scores: %w", err)
	}

	that.scores = entity.Scores{
		Player1: max(scores.Player1, 0),
		Player2: max(scores.Player2, 0),
	}

	return nil
}

func (that *Ledger) RecordWin(ctx context.Context, winner entity.Slot) error {
	if winner != entity.SlotA && winner != entity.SlotB {
		return fmt.Errorf("%w: win recorded for slot %q", apperror.ErrInvariantViolation, winner)
	}

	that.mu.Lock()
	that.scores.Increment(winner)
	scores := that.scores
	that.mu.Unlock()

	if err := that.scoreRepo.Save(ctx, scores); err != nil {
		return fmt.Errorf("failed to save scores after win: %w", err)
	}

	return nil
}

func (that *Ledger) ResetScores(ctx context.Context) error {
	that.mu.Lock()
	that.scores = entity.Scores{}
	that.mu.Unlock()

	if err := that.scoreRepo.Save(ctx, entity.Scores{}); err != nil {
		return fmt.Errorf("failed to save reset scores: %w", err)
	}

	return nil
}

// Rename replaces the names given as non-blank strings and always resets both scores.
func (that *Ledger) Rename(ctx context.Context, player1, player2 string) error {
	that.mu.Lock()
	if name := strings.TrimSpace(player1); name != "" {
		that.players.Player1 = name
	}
	if name := strings.TrimSpace(player2); name != "" {
		that.players.Player2 = name
	}
	that.mu.Unlock()

	return that.ResetScores(ctx)
}

func (that *Ledger) Scores() entity.Scores {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.scores
}

func (that *Ledger) Players() entity.Players {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.players
}
