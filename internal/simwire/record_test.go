package simwire

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatErrorsPerBurst(t *testing.T) {
	r := &DataRecord{
		UID: 42, Words: 100, BurstBits: 4, BurstCodeBits: 7, Pad: 0,
		Model: "UNIFORM_RANDOM(p:0.000000)", Cells: "ALL_TRUE", Pattern: "ALL_ONES",
		Observable: ErrorsPerBurst,
		Buckets:    []Bucket{{N: 0, Code: 100, Data: 100}},
	}
	require.Equal(t,
		"[DATA] uid:42 nw:100 bl:4 bcl:7 ps:0 em:UNIFORM_RANDOM(p:0.000000) cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST [ 0:100:100 ]",
		FormatData(r))

	r.Buckets = nil
	require.True(t, strings.HasSuffix(FormatData(r), "obs:N_ERRORS_PER_BURST [ ]"))
}

func TestFormatPerBitWithCustom(t *testing.T) {
	r := &DataRecord{
		UID: 1, Words: 3, BurstBits: 2, BurstCodeBits: 3, Pad: 1,
		Model: "NORMAL()", Cells: "ALL_ANTI", Pattern: "CUSTOM", Custom: "2",
		Observable: PerBitErrorCount,
		PerBitData: []uint64{0, 1}, PerBitCode: []uint64{2, 0, 1},
	}
	require.Equal(t,
		"[DATA] uid:1 nw:3 bl:2 bcl:3 ps:1 em:NORMAL() cd:ALL_ANTI dp:CUSTOM cdp:2 obs:PER_BIT_ERROR_COUNT [ 0 1 : 2 0 1 ]",
		FormatData(r))
}

func TestParseDataInvertsFormat(t *testing.T) {
	for _, r := range []*DataRecord{
		{
			UID: 18446744073709551615, Words: 10000, BurstBits: 64, BurstCodeBits: 72, Pad: 0,
			Model: "DATA_RETENTION_NOISY(p:0.500000 n:0.010000);NORMAL()", Cells: "ALL_TRUE_OR_ALL_ANTI", Pattern: "RANDOM",
			Observable: ErrorsPerBurst,
			Buckets:    []Bucket{{0, 10, 20}, {1, 5, 0}, {3, 1, 2}},
		},
		{
			UID: 7, Words: 1, BurstBits: 3, BurstCodeBits: 6, Pad: 1,
			Model: "STUCK_AT(v:1)", Cells: "COLSTRIPE_T", Pattern: "CUSTOM", Custom: "5",
			Observable: PerBitErrorCount,
			PerBitData: []uint64{1, 0, 1}, PerBitCode: []uint64{1, 1, 0, 0, 0, 9},
		},
	} {
		got, err := ParseData(FormatData(r))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}
}

func TestParseDataRejects(t *testing.T) {
	for _, line := range []string{
		"[ECC] {}",
		"[DATA] uid:1 nw:1 bl:1 bcl:1 em:NORMAL() cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST [ ]",
		"[DATA] uid:x nw:1 bl:1 bcl:1 ps:0 em:NORMAL() cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST [ ]",
		"[DATA] uid:1 nw:1 bl:1 bcl:1 ps:0 em:NORMAL() cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST [ 0:1 ]",
		"[DATA] uid:1 nw:1 bl:1 bcl:1 ps:0 em:NORMAL() cd:ALL_TRUE dp:ALL_ONES obs:N_ERRORS_PER_BURST",
	} {
		_, err := ParseData(line)
		require.Truef(t, errors.Is(err, ErrMalformed), "%q: %v", line, err)
	}
	_, err := ParseData("[DATA] uid:1 nw:1 bl:1 bcl:1 ps:0 em:NORMAL() cd:ALL_TRUE dp:ALL_ONES obs:BER [ ]")
	require.True(t, errors.Is(err, ErrUnknownObservable))
}

func TestSinkWritesWholeLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				require.NoError(t, s.WriteLine(FormatInfo("Starting ECC simulations")))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(400), s.Lines())
	for _, l := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		require.Equal(t, "[INFO] Starting ECC simulations", l)
	}
	require.Equal(t, "[ECC] {\"s\":\"HSC\"}", FormatECC([]byte(`{"s":"HSC"}`)))
}
