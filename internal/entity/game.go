package entity

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusTied       = "tied"
)

type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Slot is a logical player identity. Slot A always plays X and moves first.
type Slot string

const (
	NoSlot Slot = ""
	SlotA  Slot = "A"
	SlotB  Slot = "B"
)

func (that Slot) Mark() Mark {
	switch that {
	case SlotA:
		return PlayerX
	case SlotB:
		return PlayerO
	default:
		return EmptyCell
	}
}

func (that Slot) Other() Slot {
	if that == SlotA {
		return SlotB
	}
	return SlotA
}

type Mode string

const (
	ModeTwoPlayer Mode = "two-player"
	ModeSolo      Mode = "solo"
)

func (that Mode) IsValid() bool {
	return that == ModeTwoPlayer || that == ModeSolo
}

func (that Mode) Toggle() Mode {
	if that == ModeSolo {
		return ModeTwoPlayer
	}
	return ModeSolo
}

// Board holds size*size cells in row-major order: index i is row i/size, column i%size.
type Board []Mark

func NewBoard(size int) Board {
	board := make(Board, size*size)
	for i := range board {
		board[i] = EmptyCell
	}
	return board
}

func (that Board) Clone() Board {
	board := make(Board, len(that))
	copy(board, that)
	return board
}

type Session struct {
	ID           string  `json:"id"`
	Size         int     `json:"size"`
	Board        Board   `json:"board"`
	Turn         Slot    `json:"turn"`
	Status       string  `json:"status"`
	Winner       Slot    `json:"winner,omitempty"`
	Mode         Mode    `json:"mode"`
	WinningLines [][]int `json:"winning_lines,omitempty"`
}

func (that *Session) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusTied
}

func (that *Session) IsSolo() bool {
	return that.Mode == ModeSolo
}

// ComputerToMove reports whether a solo session is waiting for the computer's move.
func (that *Session) ComputerToMove() bool {
	return that.IsSolo() && that.IsInProgress() && that.Turn == SlotB
}

func (that *Session) Clone() *Session {
	clone := *that
	clone.Board = that.Board.Clone()

	if that.WinningLines != nil {
		clone.WinningLines = make([][]int, len(that.WinningLines))
		for i, line := range that.WinningLines {
			clone.WinningLines[i] = append([]int(nil), line...)
		}
	}

	return &clone
}
