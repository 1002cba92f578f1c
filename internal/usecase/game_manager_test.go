package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/service"
	"github.com/rocketscienceinc/tictactoe-board/internal/tictactoe"
)

var errStorageIsFull = errors.New("storage is full")

type memoryScoreRepo struct {
	mu      sync.Mutex
	scores  entity.Scores
	saves   int
	failing bool
}

func (that *memoryScoreRepo) Load(context.Context) (entity.Scores, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scores, nil
}

func (that *memoryScoreRepo) Save(_ context.Context, scores entity.Scores) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.saves++
	if that.failing {
		return errStorageIsFull
	}
	that.scores = scores

	return nil
}

func (that *memoryScoreRepo) stored() entity.Scores {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scores
}

func defaultSettings() Settings {
	return Settings{
		DefaultSize:    3,
		MinSize:        3,
		MaxSize:        10,
		DefaultMode:    entity.ModeTwoPlayer,
		AutoResetDelay: time.Hour,
	}
}

func newTestManager(t *testing.T, settings Settings) (*GameManager, *memoryScoreRepo) {
	t.Helper()

	repo := &memoryScoreRepo{}
	ledger := service.NewLedger(repo, entity.DefaultPlayers())
	require.NoError(t, ledger.Load(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager, err := NewGameManager(logger, ledger, service.NewBotService(nil), settings)
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	return manager, repo
}

// winForA plays A->0, B->4, A->1, B->3, A->2 on a 3x3 two-player board.
func winForA(t *testing.T, manager *GameManager) Report {
	t.Helper()

	var report Report
	for _, cell := range []int{0, 4, 1, 3, 2} {
		var err error
		report, err = manager.Play(context.Background(), cell)
		require.NoError(t, err)
	}

	return report
}

func TestNewGameManager(t *testing.T) {
	t.Run("Starts a fresh session with the default size and mode", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())

		state := manager.State()

		assert.Equal(t, 3, state.Session.Size)
		assert.Equal(t, entity.NewBoard(3), state.Session.Board)
		assert.Equal(t, entity.ModeTwoPlayer, state.Session.Mode)
		assert.Equal(t, entity.StatusInProgress, state.Session.Status)
		assert.Equal(t, entity.DefaultPlayer1Name, state.ActivePlayer)
		assert.Equal(t, entity.Scores{}, state.Scores)
		assert.False(t, state.ResetPending)
	})

	t.Run("Error on default size outside the range", func(t *testing.T) {
		settings := defaultSettings()
		settings.DefaultSize = 12

		ledger := service.NewLedger(&memoryScoreRepo{}, entity.DefaultPlayers())
		_, err := NewGameManager(slog.New(slog.NewTextHandler(io.Discard, nil)), ledger, service.NewBotService(nil), settings)

		require.ErrorIs(t, err, apperror.ErrInvalidSize)
	})
}

func TestGameManager_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("Win records the score and schedules a reset", func(t *testing.T) {
		// Given: a two-player game
		manager, repo := newTestManager(t, defaultSettings())

		// When: A completes the top row
		report := winForA(t, manager)

		// Then: the last move wins with the top row
		require.Len(t, report.Moves, 1)
		assert.Equal(t, tictactoe.OutcomeWin, report.Moves[0].Outcome)
		assert.Equal(t, entity.SlotA, report.Moves[0].Winner)
		assert.Equal(t, [][]int{{0, 1, 2}}, report.Moves[0].Lines)

		// Then: A's score grows by one, B's stays, and the store matches
		assert.Equal(t, entity.Scores{Player1: 1, Player2: 0}, report.State.Scores)
		assert.Equal(t, report.State.Scores, repo.stored())
		assert.True(t, report.State.ResetPending)
		assert.Empty(t, report.State.ActivePlayer)
	})

	t.Run("Turn passes between players", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())

		report, err := manager.Play(ctx, 4)
		require.NoError(t, err)

		assert.Equal(t, entity.SlotB, report.Moves[0].Next)
		assert.Equal(t, entity.DefaultPlayer2Name, report.State.ActivePlayer)
	})

	t.Run("Rejected move leaves the state unchanged", func(t *testing.T) {
		// Given: A took cell 4
		manager, _ := newTestManager(t, defaultSettings())
		_, err := manager.Play(ctx, 4)
		require.NoError(t, err)
		before := manager.State()

		// When: B clicks the same cell
		report, err := manager.Play(ctx, 4)

		// Then: the rejection is reported and nothing moved
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.True(t, apperror.IsRejection(err))
		assert.Equal(t, tictactoe.OutcomeRejected, report.Moves[0].Outcome)
		assert.Equal(t, before, manager.State())
	})

	t.Run("Moves after a win are rejected", func(t *testing.T) {
		manager, repo := newTestManager(t, defaultSettings())
		winForA(t, manager)

		_, err := manager.Play(ctx, 8)

		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, entity.Scores{Player1: 1}, repo.stored())
	})

	t.Run("Tie changes no score", func(t *testing.T) {
		manager, repo := newTestManager(t, defaultSettings())

		var report Report
		for _, cell := range []int{1, 0, 3, 2, 5, 4, 6, 7, 8} {
			var err error
			report, err = manager.Play(ctx, cell)
			require.NoError(t, err)
		}

		assert.Equal(t, tictactoe.OutcomeTie, report.Moves[0].Outcome)
		assert.Equal(t, entity.StatusTied, report.State.Session.Status)
		assert.Equal(t, entity.Scores{}, report.State.Scores)
		assert.Zero(t, repo.saves)
		assert.True(t, report.State.ResetPending)
	})

	t.Run("Persistence failure keeps the in-memory score", func(t *testing.T) {
		manager, repo := newTestManager(t, defaultSettings())
		repo.failing = true

		report := winForA(t, manager)

		assert.Equal(t, entity.Scores{Player1: 1}, report.State.Scores)
		assert.Equal(t, 1, repo.saves)
	})
}

func TestGameManager_PlaySolo(t *testing.T) {
	ctx := context.Background()

	t.Run("Computer answers every human move", func(t *testing.T) {
		// Given: a solo game
		settings := defaultSettings()
		settings.DefaultMode = entity.ModeSolo
		manager, _ := newTestManager(t, settings)

		// When: the human takes the center
		report, err := manager.Play(ctx, 4)
		require.NoError(t, err)

		// Then: the computer placed an O right after and the human is to move again
		require.Len(t, report.Moves, 2)
		assert.Equal(t, entity.SlotA, report.Moves[0].Actor)
		assert.Equal(t, entity.SlotB, report.Moves[1].Actor)
		assert.Equal(t, entity.PlayerO, report.State.Session.Board[report.Moves[1].Cell])
		assert.Equal(t, entity.SlotA, report.State.Session.Turn)
		assert.Len(t, tictactoe.EmptyCells(report.State.Session.Board), 7)
	})

	t.Run("Game always reaches a terminal state and scores the winner", func(t *testing.T) {
		for range 25 {
			settings := defaultSettings()
			settings.DefaultMode = entity.ModeSolo
			manager, repo := newTestManager(t, settings)

			var report Report
			for {
				state := manager.State()
				if state.Session.IsFinished() {
					break
				}

				var err error
				report, err = manager.Play(ctx, tictactoe.EmptyCells(state.Session.Board)[0])
				require.NoError(t, err)
			}

			session := report.State.Session
			switch session.Status {
			case entity.StatusWon:
				assert.Equal(t, 1, report.State.Scores.Of(session.Winner))
				assert.Zero(t, report.State.Scores.Of(session.Winner.Other()))
				assert.Equal(t, report.State.Scores, repo.stored())
			case entity.StatusTied:
				assert.Equal(t, entity.Scores{}, report.State.Scores)
			default:
				t.Fatalf("unexpected status %s", session.Status)
			}
		}
	})
}

func TestGameManager_NewSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("ChangeSize starts a fresh session after a win", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		winForA(t, manager)

		state, err := manager.ChangeSize(5)
		require.NoError(t, err)

		assert.Equal(t, 5, state.Session.Size)
		assert.Equal(t, entity.NewBoard(5), state.Session.Board)
		assert.Equal(t, entity.StatusInProgress, state.Session.Status)
		assert.False(t, state.ResetPending)
		assert.Equal(t, entity.Scores{Player1: 1}, state.Scores)
	})

	t.Run("ChangeSize to the same size still starts a new session", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		_, err := manager.Play(ctx, 0)
		require.NoError(t, err)
		before := manager.State()

		state, err := manager.ChangeSize(3)
		require.NoError(t, err)

		assert.NotEqual(t, before.Session.ID, state.Session.ID)
		assert.Equal(t, entity.NewBoard(3), state.Session.Board)
	})

	t.Run("ChangeSize rejects sizes outside the range", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		before := manager.State()

		for _, size := range []int{2, 11} {
			_, err := manager.ChangeSize(size)
			require.ErrorIs(t, err, apperror.ErrInvalidSize)
		}

		assert.Equal(t, before, manager.State())
	})

	t.Run("ToggleMode flips the mode on a fresh board", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		_, err := manager.Play(ctx, 0)
		require.NoError(t, err)

		state, err := manager.ToggleMode()
		require.NoError(t, err)
		assert.Equal(t, entity.ModeSolo, state.Session.Mode)
		assert.Equal(t, entity.NewBoard(3), state.Session.Board)

		state, err = manager.ToggleMode()
		require.NoError(t, err)
		assert.Equal(t, entity.ModeTwoPlayer, state.Session.Mode)
	})

	t.Run("Reset keeps size and mode", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		_, err := manager.ChangeSize(4)
		require.NoError(t, err)
		_, err = manager.Play(ctx, 0)
		require.NoError(t, err)

		state, err := manager.Reset()
		require.NoError(t, err)

		assert.Equal(t, 4, state.Session.Size)
		assert.Equal(t, entity.NewBoard(4), state.Session.Board)
	})

	t.Run("Rename resets scores and the board", func(t *testing.T) {
		manager, repo := newTestManager(t, defaultSettings())
		winForA(t, manager)

		state, err := manager.Rename(ctx, "Alice", " ")
		require.NoError(t, err)

		assert.Equal(t, entity.Players{Player1: "Alice", Player2: entity.DefaultPlayer2Name}, state.Players)
		assert.Equal(t, entity.Scores{}, state.Scores)
		assert.Equal(t, entity.Scores{}, repo.stored())
		assert.Equal(t, entity.StatusInProgress, state.Session.Status)
		assert.Equal(t, "Alice", state.ActivePlayer)
		assert.False(t, state.ResetPending)
	})

	t.Run("ResetScores keeps the session", func(t *testing.T) {
		manager, repo := newTestManager(t, defaultSettings())
		winForA(t, manager)
		before := manager.State()

		state := manager.ResetScores(ctx)

		assert.Equal(t, entity.Scores{}, state.Scores)
		assert.Equal(t, entity.Scores{}, repo.stored())
		assert.Equal(t, before.Session, state.Session)
		assert.True(t, state.ResetPending)
	})
}

func TestGameManager_AutoReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Terminal session resets after the delay", func(t *testing.T) {
		settings := defaultSettings()
		settings.AutoResetDelay = 20 * time.Millisecond
		manager, _ := newTestManager(t, settings)

		report := winForA(t, manager)
		wonID := report.State.Session.ID

		require.Eventually(t, func() bool {
			state := manager.State()
			return state.Session.ID != wonID && state.Session.IsInProgress() && !state.ResetPending
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, entity.NewBoard(3), manager.State().Session.Board)
		assert.Equal(t, entity.Scores{Player1: 1}, manager.State().Scores)
	})

	t.Run("Explicit reset cancels the pending one", func(t *testing.T) {
		// Given: a won game with a reset scheduled soon
		settings := defaultSettings()
		settings.AutoResetDelay = 40 * time.Millisecond
		manager, _ := newTestManager(t, settings)
		winForA(t, manager)

		// When: the players reset and start playing right away
		state, err := manager.Reset()
		require.NoError(t, err)
		_, err = manager.Play(ctx, 4)
		require.NoError(t, err)

		// Then: the old reset never wipes the newer session
		time.Sleep(100 * time.Millisecond)
		current := manager.State()
		assert.Equal(t, state.Session.ID, current.Session.ID)
		assert.Equal(t, entity.PlayerX, current.Session.Board[4])
	})

	t.Run("HoldReset keeps the finished board", func(t *testing.T) {
		settings := defaultSettings()
		settings.AutoResetDelay = 30 * time.Millisecond
		manager, _ := newTestManager(t, settings)
		report := winForA(t, manager)

		assert.True(t, manager.HoldReset())
		assert.False(t, manager.HoldReset())

		time.Sleep(80 * time.Millisecond)
		state := manager.State()
		assert.Equal(t, report.State.Session.ID, state.Session.ID)
		assert.Equal(t, entity.StatusWon, state.Session.Status)
		assert.False(t, state.ResetPending)
	})
}

func TestGameManager_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("Subscribers get a snapshot after each change", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		updates, unsubscribe := manager.Subscribe()

		_, err := manager.Play(ctx, 2)
		require.NoError(t, err)

		select {
		case snapshot := <-updates:
			assert.Equal(t, entity.PlayerX, snapshot.Session.Board[2])
		case <-time.After(time.Second):
			t.Fatal("no snapshot published")
		}

		unsubscribe()
		unsubscribe()

		_, ok := <-updates
		assert.False(t, ok)
	})

	t.Run("Close ends every subscription", func(t *testing.T) {
		manager, _ := newTestManager(t, defaultSettings())
		updates, _ := manager.Subscribe()

		manager.Close()

		_, ok := <-updates
		assert.False(t, ok)

		late, _ := manager.Subscribe()
		_, ok = <-late
		assert.False(t, ok)
	})
}
