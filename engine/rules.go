package engine

// DefaultFaceCount is the number of distinct faces in a standard deck (16 cards).
const DefaultFaceCount = len(Faces)

// numFaces returns the effective face count: values ≤0 mean the default,
// values above len(Faces) are capped.
func numFaces(n int) int {
	switch {
	case n <= 0:
		return DefaultFaceCount
	case n > len(Faces):
		return len(Faces)
	}
	return n
}

// DeckSize returns the number of cards a deck with faceCount faces holds.
func DeckSize(faceCount int) int {
	return 2 * numFaces(faceCount)
}
