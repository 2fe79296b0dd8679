package cache_test

import (
	"testing"

	"github.com/katalvlaran/optiq/cache"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// BenchmarkLookupHit measures the duplicate-detection hot path: a bit-exact
// key build plus one map probe and an LRU touch.
func BenchmarkLookupHit(b *testing.B) {
	c := cache.New(cache.DefaultOptions(), nil)
	p := vars.Point{vars.RealValue(0.5), vars.RealValue(1.5), vars.IntValue(3)}

	r, err := response.New(response.ValuesOnly(1), 3)
	if err != nil {
		b.Fatal(err)
	}
	pair, err := cache.NewPair("sim", p, r, 1)
	if err != nil {
		b.Fatal(err)
	}
	if err = c.Store(pair); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := c.Lookup("sim", p); !ok {
			b.Fatal("expected hit")
		}
	}
}

// BenchmarkStore measures insertion with the superset-replacement check.
func BenchmarkStore(b *testing.B) {
	c := cache.New(cache.DefaultOptions(), nil)
	r, err := response.New(response.ValuesOnly(1), 1)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := vars.Point{vars.RealValue(float64(i))}
		pair, perr := cache.NewPair("sim", p, r, int64(i))
		if perr != nil {
			b.Fatal(perr)
		}
		if err = c.Store(pair); err != nil {
			b.Fatal(err)
		}
	}
}
