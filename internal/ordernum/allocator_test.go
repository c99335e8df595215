package ordernum_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/ordernum"
)

func TestAllocator_SequentialAndScoped(t *testing.T) {
	prod := ordernum.NewAllocator(models.EnvProduction, 0)
	test := ordernum.NewAllocator(models.EnvTest, 0)

	require.Equal(t, "FF00000010", prod.Allocate())
	require.Equal(t, "FF00000020", prod.Allocate())
	require.Equal(t, "TF00000010", test.Allocate())
}

func TestAllocator_SeededFromLastSequence(t *testing.T) {
	a := ordernum.NewAllocator(models.EnvProduction, 41)
	require.Equal(t, "FF00000420", a.Allocate())
}

func TestAllocator_ConcurrentAllocationsDistinct(t *testing.T) {
	const n = 200
	a := ordernum.NewAllocator(models.EnvProduction, 0)

	var wg sync.WaitGroup
	out := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- a.Allocate()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool, n)
	for num := range out {
		require.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, n)

	// No gaps: exactly sequences 1..n were issued.
	for num := range seen {
		_, seq, shipments, err := ordernum.Parse(num)
		require.NoError(t, err)
		require.Equal(t, 0, shipments)
		require.GreaterOrEqual(t, seq, int64(1))
		require.LessOrEqual(t, seq, int64(n))
	}
}

func TestParse_RoundTrip(t *testing.T) {
	num := ordernum.Format(models.EnvTest, 123, 2)
	require.Equal(t, "TF00001232", num)

	env, seq, shipments, err := ordernum.Parse(num)
	require.NoError(t, err)
	require.Equal(t, models.EnvTest, env)
	require.Equal(t, int64(123), seq)
	require.Equal(t, 2, shipments)
}

func TestParse_Malformed(t *testing.T) {
	for _, bad := range []string{"", "XX00000010", "FF123", "FFabcdefg0", "FF000000101"} {
		_, _, _, err := ordernum.Parse(bad)
		require.ErrorIs(t, err, ordernum.ErrMalformed, "input %q", bad)
	}
}

func TestWithShipments(t *testing.T) {
	num := ordernum.Format(models.EnvProduction, 7, 0)

	updated, err := ordernum.WithShipments(num, 3)
	require.NoError(t, err)
	require.Equal(t, "FF00000073", updated)

	_, err = ordernum.WithShipments(num, 10)
	require.Error(t, err)

	_, err = ordernum.WithShipments("garbage", 1)
	require.ErrorIs(t, err, ordernum.ErrMalformed)
}
