package ecc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildRegistered(t *testing.T) {
	for _, tc := range []struct {
		name string
		kind Kind
		t    int
	}{
		{"REP_T1", KindRepetition, 1},
		{"rep_t3", KindRepetition, 3},
		{"HSC", KindHamming, 1},
		{"BCH_T2", KindBCH, 2},
	} {
		s, err := Build(tc.name, 8, 0)
		require.NoError(t, err)
		require.Equal(t, tc.kind, s.Kind())
		require.Equal(t, tc.t, s.CorrectionCapability())
		require.True(t, s.Ready())
		require.Equal(t, strings.ToUpper(tc.name), s.Name())
	}
	_, err := Build("LDPC", 8, 0)
	require.True(t, errors.Is(err, ErrUnknownScheme))
	require.Contains(t, Names(), "BCH_T3")
}

func TestCheckUnique(t *testing.T) {
	a, _ := NewHamming(8, 0)
	b, _ := NewHamming(8, 1)
	c, _ := NewHamming(8, 0)
	require.NoError(t, CheckUnique([]Scheme{a, b}))
	err := CheckUnique([]Scheme{a, b, c})
	require.True(t, errors.Is(err, ErrUIDCollision))
}

func TestInvariantErrorDump(t *testing.T) {
	e := &InvariantError{Scheme: "HSC", Msg: "miscorrection", CodeSent: BitsOf(1, 0), DataRecv: BitsOf(1)}
	s := e.Error()
	require.Contains(t, s, "miscorrection (HSC)")
	require.Contains(t, s, "    > code_sent: 1 0")
	require.Contains(t, s, "    > data_rcvd: 1")
	require.NotContains(t, s, "code_rcvd")
}

func TestMatrixRowEchelonRank(t *testing.T) {
	m, ok := MatrixFromRows([][]int{{1, 1, 0}, {0, 1, 1}, {1, 0, 1}})
	require.True(t, ok)
	require.Equal(t, 2, m.RowEchelon())
	_, ok = MatrixFromRows([][]int{{1, 0}, {1}})
	require.False(t, ok)
}
