package impostor

import (
	"crypto/rand"
	"math/big"
)

// Source supplies the randomness for code generation and round setup.
type Source interface {
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
	// Shuffle permutes n elements uniformly by calling swap.
	Shuffle(n int, swap func(i, j int))
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return int(v.Int64())
}

// Shuffle permutes n elements in place with a Fisher-Yates pass, calling swap
// for each exchange.
func (s CryptoSource) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.Intn(i+1))
	}
}

func pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

func shuffled[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)

	src.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}
