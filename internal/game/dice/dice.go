// Package dice provides the randomness abstraction used to order actors and
// targets during combat.
package dice

// Source is the randomness provider for turn order and target selection.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Shuffle permutes n elements in place using a Fisher-Yates pass over src.
//
// Precondition: n >= 0; swap must exchange elements i and j.
// Postcondition: Every permutation of n elements is reachable.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

// Shuffled returns a shuffled copy of items, leaving items untouched.
//
// Postcondition: len(result) == len(items) and result is a permutation of items.
func Shuffled[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	Shuffle(src, len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Pick returns one element of items chosen uniformly.
//
// Postcondition: ok is false only when items is empty.
func Pick[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.Intn(len(items))], true
}
