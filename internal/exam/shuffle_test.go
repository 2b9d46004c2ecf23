package exam

import (
	"math/rand/v2"
	"regexp"
	"slices"
	"testing"
)

func TestShuffleIsPermutation(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	orig := slices.Clone(in)

	for range 100 {
		out := Shuffle(r, in)
		if len(out) != len(in) {
			t.Fatalf("len = %d, want %d", len(out), len(in))
		}
		sorted := slices.Clone(out)
		slices.Sort(sorted)
		if !slices.Equal(sorted, orig) {
			t.Fatalf("%v is not a permutation of %v", out, orig)
		}
	}
	if !slices.Equal(in, orig) {
		t.Errorf("input modified: %v", in)
	}
}

func TestShuffleEmptyAndSingle(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	if out := Shuffle(r, []string{}); len(out) != 0 {
		t.Errorf("empty shuffle = %v", out)
	}
	if out := Shuffle(r, []string{"x"}); !slices.Equal(out, []string{"x"}) {
		t.Errorf("single shuffle = %v", out)
	}
}

// Each of the 6 orders of 3 items should come up about equally often.
func TestShuffleUniform(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	const trials = 60000
	counts := map[[3]int]int{}
	for range trials {
		out := Shuffle(r, []int{0, 1, 2})
		counts[[3]int{out[0], out[1], out[2]}]++
	}
	if len(counts) != 6 {
		t.Fatalf("saw %d orders, want 6", len(counts))
	}

	expected := float64(trials) / 6
	var chi2 float64
	for _, n := range counts {
		d := float64(n) - expected
		chi2 += d * d / expected
	}
	// 5 degrees of freedom, p = 0.001
	if chi2 > 20.52 {
		t.Errorf("chi-square %.2f too large; counts %v", chi2, counts)
	}
}

func TestSessionIDFormat(t *testing.T) {
	s := NewShuffler(rand.NewPCG(7, 7))
	re := regexp.MustCompile(`^exam_1772355600000_[0-9a-z]{7}$`)

	seen := map[string]bool{}
	for range 50 {
		id := s.SessionID(t0)
		if !re.MatchString(id) {
			t.Fatalf("id %q has wrong format", id)
		}
		seen[id] = true
	}
	if len(seen) < 50 {
		t.Errorf("only %d distinct ids out of 50", len(seen))
	}
}

func TestShufflerQuestionsKeepsPool(t *testing.T) {
	pool := makeQuestions(10)
	out := NewShuffler(rand.NewPCG(5, 6)).Questions(pool)

	ids := func(qs []string) []string { slices.Sort(qs); return qs }
	var got, want []string
	for i := range out {
		got = append(got, out[i].ID)
		want = append(want, pool[i].ID)
	}
	if !slices.Equal(ids(got), ids(want)) {
		t.Errorf("shuffled ids %v differ from pool %v", got, want)
	}
}
