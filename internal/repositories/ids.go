package repositories

import (
	"fmt"
	"math/rand/v2"
)

// Id ranges handed out by the stores.
const (
	UserIDMin     = 1000
	UserIDMax     = 9999
	ChampionIDMin = 1
	ChampionIDMax = 1_000_000
)

const maxIDAttempts = 64

// IDFunc returns a random integer in [lo, hi].
type IDFunc func(lo, hi int) int

func randomID(lo, hi int) int {
	return lo + rand.IntN(hi-lo+1)
}

// pickID draws ids until one is not taken.
func pickID(next IDFunc, lo, hi int, taken func(int) bool) (int, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := next(lo, hi)
		if !taken(id) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w in [%d, %d] after %d attempts", ErrIDSpaceExhausted, lo, hi, maxIDAttempts)
}
