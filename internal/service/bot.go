package service

import (
	"errors"
	"math/rand/v2"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks the computer's cell. It is not a strategy: every empty cell is equally likely.
type BotService interface {
	PickCell(cells []int) (int, error)
}

type botService struct {
	rnd *rand.Rand
}

// NewBotService returns a picker backed by src, or by the global generator when src is nil.
func NewBotService(src rand.Source) BotService {
	bot := &botService{}
	if src != nil {
		bot.rnd = rand.New(src) //nolint: gosec // it's ok
	}
	return bot
}

func (that *botService) PickCell(cells []int) (int, error) {
	if len(cells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	if that.rnd != nil {
		return cells[that.rnd.IntN(len(cells))], nil
	}

	return cells[rand.IntN(len(cells))], nil //nolint: gosec // it's ok
}
