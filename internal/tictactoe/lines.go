package tictactoe

import "github.com/rocketscienceinc/tictactoe-board/internal/entity"

// line is a full row, column or diagonal walked from start with a fixed step.
type line struct {
	start int
	step  int
}

// boardLines lists rows, then columns, then the main and anti diagonals.
func boardLines(size int) []line {
	lines := make([]line, 0, 2*size+2)

	for row := range size {
		lines = append(lines, line{start: row * size, step: 1})
	}

	for col := range size {
		lines = append(lines, line{start: col, step: size})
	}

	lines = append(lines,
		line{start: 0, step: size + 1},
		line{start: size - 1, step: size - 1},
	)

	return lines
}

func (that line) cells(size int) []int {
	cells := make([]int, size)
	for i := range size {
		cells[i] = that.start + i*that.step
	}
	return cells
}

// wins reports whether the start cell is marked and every cell along the line repeats that mark.
func (that line) wins(board entity.Board, size int) bool {
	symbol := board[that.start]
	if symbol == entity.EmptyCell {
		return false
	}

	for i := 1; i < size; i++ {
		if board[that.start+i*that.step] != symbol {
			return false
		}
	}

	return true
}

// CheckWin returns the mark that fills an entire row, column or diagonal.
// There is no shorter N-in-a-row rule: a 10x10 board needs ten in a line.
func CheckWin(board entity.Board, size int) (entity.Mark, bool) {
	if !isValidBoard(board, size) {
		return entity.EmptyCell, false
	}

	for _, l := range boardLines(size) {
		if l.wins(board, size) {
			return board[l.start], true
		}
	}

	return entity.EmptyCell, false
}

// WinningLines collects the cell indexes of every winning line. Lines that share cells are all reported.
func WinningLines(board entity.Board, size int) [][]int {
	if !isValidBoard(board, size) {
		return nil
	}

	var winning [][]int
	for _, l := range boardLines(size) {
		if l.wins(board, size) {
			winning = append(winning, l.cells(size))
		}
	}

	return winning
}

// CheckTie is true only for a full board without a winning line.
func CheckTie(board entity.Board, size int) bool {
	if _, won := CheckWin(board, size); won {
		return false
	}

	return isValidBoard(board, size) && isBoardFull(board)
}

func EmptyCells(board entity.Board) []int {
	cells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == entity.EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func isBoardFull(board entity.Board) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}
	return true
}

func isValidBoard(board entity.Board, size int) bool {
	return size > 0 && len(board) == size*size
}
