package engine

import "testing"

// TestFacesUnique verifies the face table has no duplicates.
func TestFacesUnique(t *testing.T) {
	seen := make(map[Face]bool)
	for _, f := range Faces {
		if seen[f] {
			t.Errorf("duplicate face %q", f)
		}
		seen[f] = true
	}
	if len(seen) != DefaultFaceCount {
		t.Errorf("got %d faces, want %d", len(seen), DefaultFaceCount)
	}
}

// TestCardFaceUp verifies FaceUp for every flag combination.
func TestCardFaceUp(t *testing.T) {
	tests := []struct {
		flipped, matched bool
		want             bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, tt := range tests {
		c := Card{IsFlipped: tt.flipped, IsMatched: tt.matched}
		if got := c.FaceUp(); got != tt.want {
			t.Errorf("Card{flipped:%v matched:%v}.FaceUp() = %v, want %v", tt.flipped, tt.matched, got, tt.want)
		}
	}
}

// TestDeckSize verifies DeckSize applies the same clamping as NewDeck.
func TestDeckSize(t *testing.T) {
	tests := []struct {
		faces int
		want  int
	}{
		{0, 16},
		{-3, 16},
		{1, 2},
		{4, 8},
		{8, 16},
		{99, 16},
	}
	for _, tt := range tests {
		if got := DeckSize(tt.faces); got != tt.want {
			t.Errorf("DeckSize(%d) = %d, want %d", tt.faces, got, tt.want)
		}
		if got := len(NewDeck(7, tt.faces)); got != tt.want {
			t.Errorf("len(NewDeck(7, %d)) = %d, want %d", tt.faces, got, tt.want)
		}
	}
}
