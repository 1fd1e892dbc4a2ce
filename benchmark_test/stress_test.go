package benchmark_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/diskset"
	"github.com/hupe1980/diskset/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMismatch = errors.New("result does not match reference")

// TestStress_Concurrency runs mixed add/remove/contains traffic from several
// goroutines. Each worker owns a disjoint residue class of values so it can
// check every answer against its own reference counts.
func TestStress_Concurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	set, err := diskset.NewOrdered[int](
		diskset.WithTempDir(t.TempDir()),
		diskset.WithCacheSize(128),
		diskset.WithFlushDelay(time.Millisecond),
	)
	require.NoError(t, err)
	defer set.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const (
		numWorkers = 8
		numValues  = 500 // per worker
	)

	var (
		opsCount atomic.Int64
		wg       sync.WaitGroup
	)

	counts := make([]map[int]int, numWorkers)
	errs := make([]error, numWorkers)

	for w := range numWorkers {
		counts[w] = make(map[int]int)
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := testutil.NewRNG(int64(w + 1))
			ref := counts[w]

			for ctx.Err() == nil {
				v := rng.Intn(numValues)*numWorkers + w
				switch rng.Intn(3) {
				case 0:
					if err := set.Add(v); err != nil {
						errs[w] = err
						return
					}
					ref[v]++
				case 1:
					found, err := set.Remove(v)
					if err != nil {
						errs[w] = err
						return
					}
					if found != (ref[v] > 0) {
						errs[w] = fmt.Errorf("remove %d: %w", v, errMismatch)
						return
					}
					if found {
						ref[v]--
					}
				default:
					found, err := set.Contains(v)
					if err != nil {
						errs[w] = err
						return
					}
					if found != (ref[v] > 0) {
						errs[w] = fmt.Errorf("contains %d: %w", v, errMismatch)
						return
					}
				}
				opsCount.Add(1)
			}
		}(w)
	}

	wg.Wait()

	for w, err := range errs {
		require.NoError(t, err, "worker %d", w)
	}

	var want []int
	for _, ref := range counts {
		for v, n := range ref {
			for range n {
				want = append(want, v)
			}
		}
	}
	sort.Ints(want)

	got, err := set.ToSlice()
	require.NoError(t, err)
	assert.Len(t, got, len(want))
	if len(want) > 0 {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, len(want), set.Size())

	t.Logf("ops: %d", opsCount.Load())
}
