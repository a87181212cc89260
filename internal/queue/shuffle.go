package queue

import (
	"crypto/rand"
	"encoding/binary"
)

// NextShuffledIndex picks a uniformly random index in [0, length) that
// differs from exclude whenever an alternative exists. A length of 1
// always yields 0. Panics if length < 1.
func NextShuffledIndex(length, exclude int) int {
	if length < 1 {
		panic("queue: NextShuffledIndex on empty queue")
	}
	if length == 1 {
		return 0
	}
	for {
		i := secureIntn(length)
		if i != exclude {
			return i
		}
	}
}

// Shuffle returns a new random permutation of tracks (Fisher-Yates).
// The input slice is never mutated.
func Shuffle(tracks []Track) []Track {
	result := make([]Track, len(tracks))
	copy(result, tracks)
	for i := len(result) - 1; i > 0; i-- {
		j := secureIntn(i + 1)
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// secureIntn returns a uniform random int in [0, n) from crypto/rand,
// using rejection sampling to avoid modulo bias.
func secureIntn(n int) int {
	maxValue := ^uint64(0) - (^uint64(0) % uint64(n))
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms; treat a
			// failure as unrecoverable rather than degrading randomness.
			panic("queue: crypto/rand read failed: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < maxValue {
			return int(v % uint64(n))
		}
	}
}
