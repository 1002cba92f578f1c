package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/tictactoe"
)

const subscriberBuffer = 16

type ledger interface {
	RecordWin(ctx context.Context, winner entity.Slot) error
	ResetScores(ctx context.Context) error
	Rename(ctx context.Context, player1, player2 string) error

	Scores() entity.Scores
	Players() entity.Players
}

type Settings struct {
	DefaultSize    int
	MinSize        int
	MaxSize        int
	DefaultMode    entity.Mode
	AutoResetDelay time.Duration
}

// Snapshot is a copy of everything a UI needs to render the game.
type Snapshot struct {
	Session      *entity.Session `json:"session"`
	Players      entity.Players  `json:"players"`
	Scores       entity.Scores   `json:"scores"`
	ActivePlayer string          `json:"active_player,omitempty"`
	ResetPending bool            `json:"reset_pending"`
}

// Report lists the moves applied by one Play call, the computer's reply included.
type Report struct {
	Moves []tictactoe.Result `json:"moves"`
	State Snapshot           `json:"state"`
}

// GameManager owns the current session of the process. Calls are serialized; only the
// auto-reset runs on its own goroutine.
type GameManager struct {
	logger *slog.Logger

	ledger   ledger
	bot      tictactoe.CellPicker
	settings Settings

	mu          sync.Mutex
	session     *entity.Session
	pending     *tictactoe.PendingReset
	subscribers map[int]chan Snapshot
	nextSubID   int
	closed      bool
}

func NewGameManager(logger *slog.Logger, ledger ledger, bot tictactoe.CellPicker, settings Settings) (*GameManager, error) {
	manager := &GameManager{
		logger:      logger.With("component", "game_manager"),
		ledger:      ledger,
		bot:         bot,
		settings:    settings,
		subscribers: make(map[int]chan Snapshot),
	}

	if err := manager.validateSize(settings.DefaultSize); err != nil {
		return nil, err
	}

	if err := manager.startSession(settings.DefaultSize, settings.DefaultMode); err != nil {
		return nil, fmt.Errorf("failed to start first session: %w", err)
	}

	return manager, nil
}

func (that *GameManager) State() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

// Play applies the move of the player to move on cell. In solo mode the computer answers
// within the same call. Wins are recorded in the ledger and terminal states schedule the auto-reset.
func (that *GameManager) Play(ctx context.Context, cell int) (Report, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Play", "session", that.session.ID, "cell", cell)

	actor := that.session.Turn
	if that.session.IsSolo() {
		actor = entity.SlotA
	}

	result, err := tictactoe.ApplyMove(that.session, cell, actor)
	if err != nil {
		if !apperror.IsRejection(err) {
			log.Error("move broke an engine invariant", "error", err)
		}

		return Report{Moves: []tictactoe.Result{result}, State: that.snapshot()}, fmt.Errorf("failed to make turn: %w", err)
	}

	moves := []tictactoe.Result{result}
	that.afterMove(ctx, result)

	if result.Outcome == tictactoe.OutcomeContinue && that.session.ComputerToMove() {
		reply, err := tictactoe.ComputerMove(that.session, that.bot)
		if err != nil {
			log.Error("computer failed to make turn", "error", err)

			that.publish()
			return Report{Moves: append(moves, reply), State: that.snapshot()}, fmt.Errorf("computer failed to make turn: %w", err)
		}

		moves = append(moves, reply)
		that.afterMove(ctx, reply)
	}

	that.publish()

	return Report{Moves: moves, State: that.snapshot()}, nil
}

// Reset starts a new session with the current size and mode.
func (that *GameManager) Reset() (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.startSession(that.session.Size, that.session.Mode); err != nil {
		return that.snapshot(), err
	}

	that.publish()
	return that.snapshot(), nil
}

// ChangeSize always starts a new session, even when size equals the current one.
func (that *GameManager) ChangeSize(size int) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.validateSize(size); err != nil {
		return that.snapshot(), err
	}

	if err := that.startSession(size, that.session.Mode); err != nil {
		return that.snapshot(), err
	}

	that.publish()
	return that.snapshot(), nil
}

func (that *GameManager) ToggleMode() (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.startSession(that.session.Size, that.session.Mode.Toggle()); err != nil {
		return that.snapshot(), err
	}

	that.publish()
	return that.snapshot(), nil
}

// Rename updates the non-blank names, zeroes the scores and starts a new session.
func (that *GameManager) Rename(ctx context.Context, player1, player2 string) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Rename")

	if err := that.ledger.Rename(ctx, player1, player2); err != nil {
		log.Warn("failed to persist scores", "error", err)
	}

	players := that.ledger.Players()
	log.Info("players renamed", "player1", players.Player1, "player2", players.Player2)

	if err := that.startSession(that.session.Size, that.session.Mode); err != nil {
		return that.snapshot(), err
	}

	that.publish()
	return that.snapshot(), nil
}

// ResetScores zeroes both scores. The current session keeps going.
func (that *GameManager) ResetScores(ctx context.Context) Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ResetScores")

	if err := that.ledger.ResetScores(ctx); err != nil {
		log.Warn("failed to persist scores", "error", err)
	}
	log.Info("scores reset")

	that.publish()
	return that.snapshot()
}

// HoldReset cancels the pending auto-reset without touching the session.
// It reports whether a reset was pending.
func (that *GameManager) HoldReset() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	held := that.cancelPendingReset()
	if held {
		that.publish()
	}

	return held
}

// Subscribe returns a channel receiving a snapshot after every state change and a function to
// unsubscribe. Slow subscribers miss snapshots instead of blocking the game.
func (that *GameManager) Subscribe() (<-chan Snapshot, func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if that.closed {
		close(ch)
		return ch, func() {}
	}

	id := that.nextSubID
	that.nextSubID++
	that.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			that.mu.Lock()
			defer that.mu.Unlock()

			if sub, ok := that.subscribers[id]; ok {
				delete(that.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close cancels the pending reset and closes every subscription.
func (that *GameManager) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelPendingReset()

	for id, ch := range that.subscribers {
		delete(that.subscribers, id)
		close(ch)
	}
	that.closed = true
}

func (that *GameManager) afterMove(ctx context.Context, result tictactoe.Result) {
	log := that.logger.With("method", "afterMove", "session", that.session.ID)

	switch result.Outcome {
	case tictactoe.OutcomeWin:
		log.Info("game won", "winner", result.Winner, "lines", result.Lines)

		if err := that.ledger.RecordWin(ctx, result.Winner); err != nil {
			log.Warn("failed to persist scores", "error", err)
		}

		that.scheduleReset()
	case tictactoe.OutcomeTie:
		log.Info("game tied")

		that.scheduleReset()
	}
}

func (that *GameManager) scheduleReset() {
	that.cancelPendingReset()
	that.pending = tictactoe.ScheduleReset(that.session.ID, that.settings.AutoResetDelay, that.autoReset)
}

// autoReset runs on the timer goroutine. It does nothing if the session it was
// scheduled for is no longer current.
func (that *GameManager) autoReset(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.pending.SessionID() != sessionID || that.session.ID != sessionID {
		that.logger.Debug("stale auto-reset ignored", "session", sessionID)
		return
	}

	that.pending = nil
	if err := that.startSession(that.session.Size, that.session.Mode); err != nil {
		that.logger.Error("auto-reset failed", "session", sessionID, "error", err)
		return
	}

	that.logger.Info("auto-reset fired", "previous_session", sessionID)
	that.publish()
}

func (that *GameManager) cancelPendingReset() bool {
	if that.pending == nil {
		return false
	}

	canceled := that.pending.Cancel()
	that.pending = nil

	return canceled
}

// startSession replaces the current session. Any pending auto-reset belongs to the old session and is canceled.
func (that *GameManager) startSession(size int, mode entity.Mode) error {
	session, err := tictactoe.NewSession(size, mode)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	that.cancelPendingReset()
	that.session = session

	that.logger.Info("session started", "session", session.ID, "size", size, "mode", mode)

	return nil
}

func (that *GameManager) validateSize(size int) error {
	if size < that.settings.MinSize || size > that.settings.MaxSize {
		return fmt.Errorf("%w: %d not within %d..%d", apperror.ErrInvalidSize, size, that.settings.MinSize, that.settings.MaxSize)
	}
	return nil
}

func (that *GameManager) snapshot() Snapshot {
	players := that.ledger.Players()

	snapshot := Snapshot{
		Session:      that.session.Clone(),
		Players:      players,
		Scores:       that.ledger.Scores(),
		ResetPending: that.pending != nil,
	}

	if that.session.IsInProgress() {
		snapshot.ActivePlayer = players.NameOf(that.session.Turn)
	}

	return snapshot
}

// publish must be called with mu held.
func (that *GameManager) publish() {
	if len(that.subscribers) == 0 {
		return
	}

	snapshot := that.snapshot()
	for id, ch := range that.subscribers {
		select {
		case ch <- snapshot:
		default:
			that.logger.Debug("subscriber is behind, snapshot dropped", "subscriber", id)
		}
	}
}
