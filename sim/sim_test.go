// Package sim_test exercises the driver contract: monotonic ids,
// out-of-order-tolerant collection, timeout, and abort draining.
package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/sim"
	"github.com/katalvlaran/optiq/vars"
)

// sphere evaluates f(x) = Σ xᵢ² for the Real entries of p.
func sphere(p vars.Point, as response.ActiveSet) (*response.Response, error) {
	r, err := response.New(as, len(p))
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, v := range p {
		sum += v.Real * v.Real
	}
	r.Values[0] = sum
	return r, nil
}

func pt(xs ...float64) vars.Point {
	p := make(vars.Point, len(xs))
	for i, x := range xs {
		p[i] = vars.RealValue(x)
	}
	return p
}

func TestFuncDriver_LaunchCollect(t *testing.T) {
	d := sim.NewFuncDriver("sphere", sim.ValueOnlyCapabilities(1), sphere)

	id1, err := d.Launch(pt(1, 2), response.ValuesOnly(1))
	require.NoError(t, err)
	id2, err := d.Launch(pt(3), response.ValuesOnly(1))
	require.NoError(t, err)
	require.Greater(t, id2, id1, "ids must be monotonic")

	cs, err := d.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 2)

	byID := map[int64]float64{}
	for _, c := range cs {
		require.NoError(t, c.Err)
		byID[c.EvalID] = c.Response.Values[0]
	}
	require.Equal(t, 5.0, byID[id1])
	require.Equal(t, 9.0, byID[id2])

	_, err = d.Collect(context.Background())
	require.ErrorIs(t, err, sim.ErrNoPending)
}

func TestFuncDriver_AbortDrains(t *testing.T) {
	d := sim.NewFuncDriver("sphere", sim.ValueOnlyCapabilities(1), sphere)
	id, err := d.Launch(pt(1), response.ValuesOnly(1))
	require.NoError(t, err)

	d.Abort()
	_, err = d.Launch(pt(2), response.ValuesOnly(1))
	require.ErrorIs(t, err, sim.ErrAborted)

	cs, err := d.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, id, cs[0].EvalID)
	require.ErrorIs(t, cs[0].Err, sim.ErrCancelled)
}

func TestLocalPool_OutOfOrderCompletion(t *testing.T) {
	slow := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		if p[0].Real > 0.5 {
			time.Sleep(30 * time.Millisecond)
		}
		return sphere(p, as)
	}
	lp, err := sim.NewLocalPool("pool", sim.ValueOnlyCapabilities(1), slow, sim.PoolOptions{Workers: 2, QueueDepth: 8})
	require.NoError(t, err)
	defer lp.Abort()

	idSlow, err := lp.Launch(pt(1), response.ValuesOnly(1))
	require.NoError(t, err)
	idFast, err := lp.Launch(pt(0.1), response.ValuesOnly(1))
	require.NoError(t, err)

	got := map[int64]float64{}
	for len(got) < 2 {
		cs, err := lp.Collect(context.Background())
		require.NoError(t, err)
		for _, c := range cs {
			require.NoError(t, c.Err)
			got[c.EvalID] = c.Response.Values[0]
		}
	}
	require.InDelta(t, 1.0, got[idSlow], 1e-12)
	require.InDelta(t, 0.01, got[idFast], 1e-12)
}

func TestLocalPool_Timeout(t *testing.T) {
	stall := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		time.Sleep(200 * time.Millisecond)
		return sphere(p, as)
	}
	lp, err := sim.NewLocalPool("pool", sim.ValueOnlyCapabilities(1),
		stall, sim.PoolOptions{Workers: 1, QueueDepth: 2, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	defer lp.Abort()

	_, err = lp.Launch(pt(1), response.ValuesOnly(1))
	require.NoError(t, err)

	cs, err := lp.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.ErrorIs(t, cs[0].Err, sim.ErrTimeout)
}

func TestCapabilities_CoversAndClip(t *testing.T) {
	caps := sim.ValueOnlyCapabilities(2)
	grads, err := response.NewActiveSet(2, response.WantValue|response.WantGradient)
	require.NoError(t, err)

	require.True(t, caps.Covers(response.ValuesOnly(2)))
	require.False(t, caps.Covers(grads))

	clipped := caps.Clip(grads)
	require.False(t, clipped.AnyGradient())
	require.True(t, clipped[0].HasValue())
}
