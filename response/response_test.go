// Package response_test covers active-set algebra and the response audit.
package response_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optiq/response"
)

func TestActiveSet_Bits(t *testing.T) {
	as, err := response.NewActiveSet(3, response.WantValue|response.WantGradient)
	require.NoError(t, err)
	require.True(t, as[0].HasValue())
	require.True(t, as[0].HasGradient())
	require.False(t, as[0].HasHessian())
	require.True(t, as.AnyGradient())
	require.False(t, as.AnyHessian())

	_, err = response.NewActiveSet(2, 8)
	require.ErrorIs(t, err, response.ErrBadRequest)
}

func TestActiveSet_SupersetUnion(t *testing.T) {
	vals := response.ValuesOnly(2)
	grads, err := response.NewActiveSet(2, response.WantValue|response.WantGradient)
	require.NoError(t, err)

	require.True(t, grads.Superset(vals))
	require.False(t, vals.Superset(grads))

	u, err := vals.Union(grads)
	require.NoError(t, err)
	require.True(t, u.Superset(vals))
	require.True(t, u.Superset(grads))

	_, err = vals.Union(response.ValuesOnly(3))
	require.ErrorIs(t, err, response.ErrSizeMismatch)
}

func TestResponse_ShapeFollowsActiveSet(t *testing.T) {
	as, err := response.NewActiveSet(2, response.WantValue|response.WantGradient)
	require.NoError(t, err)
	r, err := response.New(as, 3)
	require.NoError(t, err)

	require.Equal(t, 2, r.Len())
	require.NotNil(t, r.Gradients)
	require.Equal(t, 2, r.Gradients.Rows())
	require.Equal(t, 3, r.Gradients.Cols())
	require.Nil(t, r.Hessians)

	// Values-only responses allocate no derivative blocks.
	r2, err := response.New(response.ValuesOnly(2), 3)
	require.NoError(t, err)
	require.Nil(t, r2.Gradients)
}

func TestResponse_AuditReportsMissing(t *testing.T) {
	want, err := response.NewActiveSet(2, response.WantValue|response.WantGradient)
	require.NoError(t, err)

	got, err := response.New(response.ValuesOnly(2), 3)
	require.NoError(t, err)

	err = got.Audit(want)
	var pr *response.PartialResponseError
	require.ErrorAs(t, err, &pr)
	require.Equal(t, []int{0, 1}, pr.Missing)

	// Failed components are exempt from the audit.
	got.Failed[0] = true
	err = got.Audit(want)
	require.ErrorAs(t, err, &pr)
	require.Equal(t, []int{1}, pr.Missing)
}

func TestResponse_Merge(t *testing.T) {
	vals, err := response.New(response.ValuesOnly(2), 2)
	require.NoError(t, err)
	vals.Values[0], vals.Values[1] = 1, 2

	gset, err := response.NewActiveSet(2, response.WantGradient)
	require.NoError(t, err)
	grads, err := response.New(gset, 2)
	require.NoError(t, err)
	require.NoError(t, grads.Gradients.Set(0, 0, 5))

	require.NoError(t, vals.Merge(grads))
	require.NotNil(t, vals.Gradients)
	require.True(t, vals.Set.AnyGradient())
	require.Equal(t, []float64{1, 2}, vals.Values)

	g, err := vals.Gradient(0)
	require.NoError(t, err)
	require.Equal(t, 5.0, g[0])
}
