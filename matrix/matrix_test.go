// Package matrix_test exercises the dense kernel via the public API only.
package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optiq/matrix"
)

func TestNewDense_RejectsBadShape(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	require.ErrorIs(t, err, matrix.ErrBadShape)
	_, err = matrix.NewDense(2, -1)
	require.ErrorIs(t, err, matrix.ErrBadShape)
}

func TestDense_SetAtRoundTrip(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 4.5))
	v, err := m.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 4.5, v)

	require.ErrorIs(t, m.Set(2, 0, 1), matrix.ErrOutOfRange)
	_, err = m.At(0, 3)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestDense_MulVec(t *testing.T) {
	m, err := matrix.FromRows([][]float64{
		{1, 2},
		{3, 4},
		{0, -1},
	})
	require.NoError(t, err)

	y, err := m.MulVec([]float64{2, 1})
	require.NoError(t, err)
	require.Equal(t, []float64{4, 10, -1}, y)

	_, err = m.MulVec([]float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestDense_ScaleRowAndClone(t *testing.T) {
	m, err := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	cp := m.Clone()
	require.NoError(t, m.ScaleRow(0, -1))

	r0, err := m.Row(0)
	require.NoError(t, err)
	require.Equal(t, []float64{-1, -2}, r0)

	// Clone must be unaffected by mutation of the original.
	c0, err := cp.Row(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, c0)
}

func TestFromRows_RejectsRagged(t *testing.T) {
	_, err := matrix.FromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
