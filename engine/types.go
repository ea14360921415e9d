package engine

import "time"

// Face is the meme printed on a card. Two cards in a deck share each face.
type Face string

// Face constants, in deal order. Card ids are assigned pairwise in this
// order before the shuffle, so ids 0 and 1 always carry FacePepe.
const (
	FacePepe       Face = "pepe"
	FaceWojak      Face = "wojak"
	FaceDoge       Face = "doge"
	FaceCheems     Face = "cheems"
	FaceChad       Face = "chad"
	FaceStonks     Face = "stonks"
	FaceDistracted Face = "distracted"
	FaceGigachad   Face = "gigachad"
)

// Faces lists every face a deck can be built from.
var Faces = [...]Face{
	FacePepe,
	FaceWojak,
	FaceDoge,
	FaceCheems,
	FaceChad,
	FaceStonks,
	FaceDistracted,
	FaceGigachad,
}

// Card is one tile on the board.
// ID and Face never change after the deck is built.
type Card struct {
	ID        int  `json:"id"`
	Face      Face `json:"face"`
	IsFlipped bool `json:"isFlipped"`
	IsMatched bool `json:"isMatched"`
}

// FaceUp reports whether the card's face is visible to every player.
func (c Card) FaceUp() bool { return c.IsFlipped || c.IsMatched }

// Standing is a player's result as seen by winner selection.
type Standing struct {
	ID          string
	Score       int
	CompletedAt *time.Time // set for the player who matched the final pair
}
