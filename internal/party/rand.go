package party

import (
	"math/rand"
	"time"
)

// newRng returns a party's private random source. Parties never share a
// source, so concurrent sessions stay independent. Seed 0 means
// time-seeded; any other seed gives reproducible behavior.
func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
