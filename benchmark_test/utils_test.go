package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/diskset"
	"github.com/hupe1980/diskset/testutil"
)

func sizeName(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%dk", n/1000)
	}
	return fmt.Sprintf("%d", n)
}

// prefilled returns a set holding the values 0..size-1 in random insertion
// order, flushed to disk.
func prefilled(tb testing.TB, size, cacheSize int) *diskset.Collection[int] {
	tb.Helper()

	set, err := diskset.NewOrdered[int](
		diskset.WithTempDir(tb.TempDir()),
		diskset.WithCacheSize(cacheSize),
	)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { _ = set.Close() })

	rng := testutil.NewRNG(42)
	values := make([]int, size)
	for i := range values {
		values[i] = i
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	for _, v := range values {
		if err := set.Add(v); err != nil {
			tb.Fatal(err)
		}
	}
	if err := set.Flush(); err != nil {
		tb.Fatal(err)
	}
	return set
}
