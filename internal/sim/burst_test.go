package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/ecc/eccmock"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

func TestLayout(t *testing.T) {
	require.Equal(t, Layout{Words: 1, Pad: 0, BurstCodeBits: 7}, NewLayout(4, 7, 4))
	require.Equal(t, Layout{Words: 3, Pad: 2, BurstCodeBits: 21}, NewLayout(4, 7, 10))
	require.Equal(t, Layout{Words: 2, Pad: 0, BurstCodeBits: 144}, NewLayout(64, 72, 128))
	require.Equal(t, Layout{Words: 1, Pad: 63, BurstCodeBits: 72}, NewLayout(64, 72, 1))
}

func hsc4(t *testing.T) ecc.Scheme {
	t.Helper()
	s, err := ecc.NewHamming(4, 0)
	require.NoError(t, err)
	return s
}

func TestErrorFreeBursts(t *testing.T) {
	s := hsc4(t)
	job := &Job{
		Scheme:      s,
		Bursts:      100,
		BurstBits:   4,
		Model:       errmodel.Vector{errmodel.NewUniformRandom(0)},
		Cells:       wordgen.AllTrue,
		Pattern:     wordgen.AllOnes,
		Observables: []simwire.Observable{simwire.ErrorsPerBurst, simwire.PerBitErrorCount},
	}
	res, err := SimulateBurst(job, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, []simwire.Bucket{{N: 0, Code: 100, Data: 100}}, res.Buckets())

	lines := Lines(job, res)
	require.Equal(t, []string{
		fmt.Sprintf("[DATA] uid:%d nw:100 bl:4 bcl:7 ps:0 em:UNIFORM_RANDOM(p:0.000000) cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST [ 0:100:100 ]", s.UID()),
		fmt.Sprintf("[DATA] uid:%d nw:100 bl:4 bcl:7 ps:0 em:UNIFORM_RANDOM(p:0.000000) cd:ALL_TRUE dp:ALL_ONES obs:PER_BIT_ERROR_COUNT [ 0 0 0 0 : 0 0 0 0 0 0 0 ]", s.UID()),
	}, lines)
}

func TestPaddedBurst(t *testing.T) {
	job := &Job{
		Scheme:      hsc4(t),
		Bursts:      20,
		BurstBits:   10,
		Model:       errmodel.Vector{errmodel.NewNormal()},
		Cells:       wordgen.AllTrueOrAllAnti,
		Pattern:     wordgen.Random,
		Observables: []simwire.Observable{simwire.PerBitErrorCount},
	}
	res, err := SimulateBurst(job, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	require.Equal(t, 2, res.Layout.Pad)
	require.Len(t, res.PerBitData, 10)
	require.Len(t, res.PerBitCode, 21)
	require.Equal(t, []simwire.Bucket{{N: 0, Code: 20, Data: 20}}, res.Buckets())
}

func TestStuckAtSplitsHistograms(t *testing.T) {
	// REP_T1 over one bit: stuck-at-0 flips all three stored copies of a 1,
	// so the codeword shows 3 errors and the data 1.
	s, err := ecc.NewRepetition(1, 3, 0)
	require.NoError(t, err)
	job := &Job{
		Scheme:      s,
		Bursts:      10,
		BurstBits:   1,
		Model:       errmodel.Vector{errmodel.NewStuckAt(false)},
		Cells:       wordgen.AllTrue,
		Pattern:     wordgen.AllOnes,
		Observables: []simwire.Observable{simwire.ErrorsPerBurst},
	}
	res, err := SimulateBurst(job, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.Equal(t, []simwire.Bucket{{N: 1, Code: 0, Data: 10}, {N: 3, Code: 10, Data: 0}}, res.Buckets())
	require.Equal(t, []uint64{10}, res.PerBitData)
	require.Equal(t, []uint64{10, 10, 10}, res.PerBitCode)
}

func TestPerBitModelRepeatsPerCodeword(t *testing.T) {
	s := hsc4(t)
	// bit 0 of every codeword is stuck at 0, the rest is fault-free
	v := errmodel.Vector{errmodel.NewStuckAt(false)}
	for i := 1; i < s.CodeBits(); i++ {
		v = append(v, errmodel.NewNormal())
	}
	job := &Job{
		Scheme: s, Bursts: 5, BurstBits: 8, Model: v,
		Cells: wordgen.AllTrue, Pattern: wordgen.AllOnes,
	}
	res, err := SimulateBurst(job, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	code := s.Encode(ecc.Ones(4))
	var want uint64
	if code[0] == 1 {
		want = 5
	}
	require.Equal(t, want, res.PerBitCode[0])
	require.Equal(t, want, res.PerBitCode[7])
	for _, d := range res.PerBitData {
		require.Zero(t, d, "a single flip per codeword is corrected")
	}
}

func TestCustomPatternLine(t *testing.T) {
	custom, err := wordgen.ParseCustom("0xa5")
	require.NoError(t, err)
	job := &Job{
		Scheme:      hsc4(t),
		Bursts:      1,
		BurstBits:   8,
		Model:       errmodel.Vector{errmodel.NewNormal()},
		Cells:       wordgen.AllAnti,
		Pattern:     wordgen.Custom,
		Custom:      custom,
		Observables: []simwire.Observable{simwire.ErrorsPerBurst},
	}
	res, err := SimulateBurst(job, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	lines := Lines(job, res)
	require.Len(t, lines, 1)
	rec, err := simwire.ParseData(lines[0])
	require.NoError(t, err)
	require.Equal(t, "CUSTOM", rec.Pattern)
	require.Equal(t, "a5", rec.Custom)
	require.Equal(t, "NORMAL()", rec.Model)
}

func TestModelLengthRejected(t *testing.T) {
	job := &Job{
		Scheme: hsc4(t), Bursts: 1, BurstBits: 4,
		Model: errmodel.Vector{errmodel.NewNormal(), errmodel.NewNormal()},
		Cells: wordgen.AllTrue, Pattern: wordgen.AllOnes,
	}
	_, err := SimulateBurst(job, rand.New(rand.NewSource(6)))
	require.ErrorIs(t, err, errmodel.ErrVectorLength)
}

func TestBrokenDecoderIsInvariantError(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := eccmock.NewMockScheme(ctrl)
	s.EXPECT().Ready().Return(true).AnyTimes()
	s.EXPECT().Name().Return("MOCK").AnyTimes()
	s.EXPECT().DataBits().Return(4).AnyTimes()
	s.EXPECT().CodeBits().Return(7).AnyTimes()
	s.EXPECT().CorrectionCapability().Return(1).AnyTimes()
	s.EXPECT().Encode(gomock.Any()).Return(ecc.NewBits(7)).AnyTimes()
	s.EXPECT().Decode(gomock.Any()).Return(ecc.BitsOf(1, 0, 0, 0)).Times(1)

	job := &Job{
		Scheme: s, Bursts: 10, BurstBits: 4,
		Model: errmodel.Vector{errmodel.NewNormal()},
		Cells: wordgen.AllTrue, Pattern: wordgen.AllOnes,
	}
	_, err := SimulateBurst(job, rand.New(rand.NewSource(7)))
	var inv *ecc.InvariantError
	require.True(t, errors.As(err, &inv))
	require.Equal(t, "MOCK", inv.Scheme)
	require.Equal(t, ecc.Ones(4), inv.DataSent)
	require.Equal(t, ecc.BitsOf(1, 0, 0, 0), inv.DataRecv)
	require.Contains(t, err.Error(), "observed 3 errors when 0 errors induced and 1 correctable")
	require.Contains(t, err.Error(), "> data_rcvd: ")
}

func TestSchemeNotReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := eccmock.NewMockScheme(ctrl)
	s.EXPECT().Ready().Return(false)
	_, err := SimulateBurst(&Job{Scheme: s, Bursts: 1, BurstBits: 4}, rand.New(rand.NewSource(8)))
	require.Error(t, err)
}

func TestSelfTestCodes(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for _, e := range []PlanEntry{
		{Kind: ecc.KindHamming, K: 11},
		{Kind: ecc.KindRepetition, K: 5, Param: 5, Perm: 1},
		{Kind: ecc.KindBCH, K: 16, Param: 2},
		{Kind: ecc.KindBCH, K: 1, Param: 3, Perm: 4},
	} {
		s, err := e.Build()
		require.NoError(t, err)
		require.NoError(t, SelfTest(s, rng), describe(s))
	}
}

func TestSelfTestCatchesBrokenDecoder(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := eccmock.NewMockScheme(ctrl)
	s.EXPECT().Kind().Return(ecc.KindHamming).AnyTimes()
	s.EXPECT().Permutation().Return(0).AnyTimes()
	s.EXPECT().DataBits().Return(2).AnyTimes()
	s.EXPECT().CodeBits().Return(3).AnyTimes()
	s.EXPECT().CorrectionCapability().Return(1).AnyTimes()
	s.EXPECT().Encode(gomock.Any()).Return(ecc.BitsOf(1, 1, 1))
	s.EXPECT().Decode(gomock.Any()).Return(ecc.BitsOf(0, 1))

	err := SelfTest(s, rand.New(rand.NewSource(10)))
	var inv *ecc.InvariantError
	require.ErrorAs(t, err, &inv)
	require.Equal(t, "HSC: p:0 t:1 k:2 n:3", inv.Scheme)
}

func TestTestPlan(t *testing.T) {
	fast := TestPlan(TestFast)
	require.Len(t, fast, 3)
	require.Len(t, fast[0], 10*len(hammingFastK))
	require.Len(t, fast[1], 7)
	require.Len(t, fast[2], 2*len(repFastK)*4)
	for _, e := range fast[1] {
		require.Equal(t, 128, e.K)
		require.Equal(t, 100, e.Iterations)
	}
	slow := TestPlan(TestSlow)
	require.Equal(t, ecc.KindHamming, slow[0][0].Kind)
	require.Equal(t, 513, slow[0][len(slow[0])-1].K)

	_, err := ParseTestMode("medium")
	require.ErrorIs(t, err, ErrConfig)
	m, err := ParseTestMode("slow")
	require.NoError(t, err)
	require.Equal(t, TestSlow, m)
}

func TestDebugWorker(t *testing.T) {
	s := hsc4(t)
	line, err := DebugWorker(s, 3, wordgen.Charged, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.Regexp(t, `^HSC: p:0 t:1 k:4 n:7 dp:CHARGED \[ 0:0:3 1:0:3 (\d+:\d+:\d+ )+\]$`, line)
}
