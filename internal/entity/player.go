package entity

const (
	DefaultPlayer1Name = "Player 1"
	DefaultPlayer2Name = "Player 2"
)

// Players holds the display names of both slots.
type Players struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

func DefaultPlayers() Players {
	return Players{Player1: DefaultPlayer1Name, Player2: DefaultPlayer2Name}
}

func (that Players) NameOf(slot Slot) string {
	switch slot {
	case SlotA:
		return that.Player1
	case SlotB:
		return that.Player2
	default:
		return ""
	}
}

// Scores holds the cumulative win counts of both slots.
type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (that Scores) Of(slot Slot) int {
	switch slot {
	case SlotA:
		return that.Player1
	case SlotB:
		return that.Player2
	default:
		return 0
	}
}

func (that *Scores) Increment(slot Slot) {
	switch slot {
	case SlotA:
		that.Player1++
	case SlotB:
		that.Player2++
	}
}
