package tictactoe

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeWin      Outcome = "win"
	OutcomeTie      Outcome = "tie"
	OutcomeRejected Outcome = "rejected"
)

// Result describes what a single move did to the session.
type Result struct {
	Outcome Outcome     `json:"outcome"`
	Cell    int         `json:"cell"`
	Mark    entity.Mark `json:"mark,omitempty"`
	Actor   entity.Slot `json:"actor,omitempty"`
	Next    entity.Slot `json:"next,omitempty"`
	Winner  entity.Slot `json:"winner,omitempty"`
	Lines   [][]int     `json:"lines,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func (that Result) IsTerminal() bool {
	return that.Outcome == OutcomeWin || that.Outcome == OutcomeTie
}

// CellPicker chooses the computer's cell among the empty ones.
type CellPicker interface {
	PickCell(cells []int) (int, error)
}

// NewSession creates an empty board of size*size cells with slot A to move.
func NewSession(size int, mode entity.Mode) (*entity.Session, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMode, mode)
	}

	return &entity.Session{
		ID:     uuid.NewString(),
		Size:   size,
		Board:  entity.NewBoard(size),
		Turn:   entity.SlotA,
		Status: entity.StatusInProgress,
		Mode:   mode,
	}, nil
}

// ApplyMove places the mark of the player to move on cell. In solo mode the human is always slot A
// and actor is not consulted. A rejected move leaves the session untouched.
func ApplyMove(session *entity.Session, cell int, actor entity.Slot) (Result, error) {
	if err := validateMove(session, cell); err != nil {
		return rejected(cell, err)
	}

	if session.IsSolo() {
		if session.Turn != entity.SlotA {
			return rejected(cell, apperror.ErrAwaitingComputer)
		}

		return placeMark(session, cell, entity.SlotA), nil
	}

	if actor != session.Turn {
		err := fmt.Errorf("%w: %w: actor %q, turn %q", apperror.ErrInvariantViolation, apperror.ErrNotYourTurn, actor, session.Turn)
		return rejected(cell, err)
	}

	return placeMark(session, cell, actor), nil
}

// ComputerMove lets slot B play one of the empty cells chosen by picker.
func ComputerMove(session *entity.Session, picker CellPicker) (Result, error) {
	if session.IsFinished() {
		return rejected(-1, apperror.ErrGameFinished)
	}

	if !session.IsSolo() {
		return rejected(-1, apperror.ErrNotSoloMode)
	}

	if session.Turn != entity.SlotB {
		return rejected(-1, apperror.ErrNotComputerTurn)
	}

	cells := EmptyCells(session.Board)
	if len(cells) == 0 {
		// a full board is always caught as a tie before the computer's turn
		return rejected(-1, fmt.Errorf("%w: no empty cells on an unfinished board", apperror.ErrInvariantViolation))
	}

	cell, err := picker.PickCell(cells)
	if err != nil {
		return rejected(-1, fmt.Errorf("failed to pick computer cell: %w", err))
	}

	if err = validateMove(session, cell); err != nil {
		return rejected(cell, fmt.Errorf("%w: picker chose %d: %w", apperror.ErrInvariantViolation, cell, err))
	}

	return placeMark(session, cell, entity.SlotB), nil
}

// validateMove - checks if the move is valid.
func validateMove(session *entity.Session, cell int) error {
	if session.IsFinished() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(session.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if session.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

// placeMark applies a validated move and evaluates the terminal conditions: win first, then tie.
func placeMark(session *entity.Session, cell int, slot entity.Slot) Result {
	session.Board[cell] = slot.Mark()

	result := Result{
		Cell:  cell,
		Mark:  slot.Mark(),
		Actor: slot,
	}

	if lines := WinningLines(session.Board, session.Size); len(lines) > 0 {
		session.Status = entity.StatusWon
		session.Winner = slot
		session.WinningLines = lines
		session.Turn = entity.NoSlot

		result.Outcome = OutcomeWin
		result.Winner = slot
		result.Lines = lines

		return result
	}

	if isBoardFull(session.Board) {
		session.Status = entity.StatusTied
		session.Turn = entity.NoSlot

		result.Outcome = OutcomeTie

		return result
	}

	session.Turn = slot.Other()

	result.Outcome = OutcomeContinue
	result.Next = session.Turn

	return result
}

func rejected(cell int, err error) (Result, error) {
	return Result{
		Outcome: OutcomeRejected,
		Cell:    cell,
		Reason:  err.Error(),
	}, err
}
