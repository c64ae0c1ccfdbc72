package tools

import (
	"math/rand"
	"time"
)

// RandomJitter returns a non-cryptographic random duration in [0, max),
// used to spread retry backoff across concurrent callers.
func RandomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
