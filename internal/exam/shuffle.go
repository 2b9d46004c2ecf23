package exam

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

// Shuffle returns a Fisher-Yates permutation of items. The input is not modified.
func Shuffle[T any](r *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Shuffler owns the random source used for question order and session ids.
// It is safe for concurrent use.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffler creates a Shuffler over src. A nil src seeds a PCG from the runtime.
func NewShuffler(src rand.Source) *Shuffler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Shuffler{rng: rand.New(src)}
}

// Questions returns pool in a uniformly random order.
func (s *Shuffler) Questions(pool []model.Question) []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Shuffle(s.rng, pool)
}

// SessionID builds "exam_<unix millis>_<7 base36 chars>".
func (s *Shuffler) SessionID(now time.Time) string {
	s.mu.Lock()
	suffix := strconv.FormatUint(s.rng.Uint64(), 36)
	s.mu.Unlock()

	for len(suffix) < 7 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("exam_%d_%s", now.UnixMilli(), suffix[:7])
}
