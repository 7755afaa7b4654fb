package game

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 50; i++ {
		va := a.Intn(100)
		vb := b.Intn(100)
		if va != vb {
			t.Fatalf("sequence diverged at draw %d: %d != %d", i, va, vb)
		}
	}
}

func TestRNGWithinBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.Intn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("draw %d out of bounds: %d", i, v)
		}
	}
}

func TestRNGDifferentSeedsDiverge(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	same := true
	for i := 0; i < 20; i++ {
		if a.Intn(1000) != b.Intn(1000) {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different seeds to diverge within 20 draws")
	}
}
