package ecc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemeJSONRebuild(t *testing.T) {
	for _, name := range []string{"HSC", "REP_T2", "BCH_T3"} {
		s, err := Build(name, 16, 3)
		require.NoError(t, err)
		b, err := MarshalScheme(s)
		require.NoError(t, err)
		require.NotContains(t, string(b), "\n")

		got, err := UnmarshalScheme(b)
		require.NoError(t, err, name)
		require.Equal(t, s.UID(), got.UID())
		require.Equal(t, s.Name(), got.Name())
		data := Ones(16)
		data[3] = 0
		require.Equal(t, s.Encode(data), got.Encode(data))
	}
}

func TestSchemeJSONUnregisteredStrength(t *testing.T) {
	b5, err := NewBCH(16, 5, 1)
	require.NoError(t, err)
	r9, err := NewRepetition(8, 9, 0)
	require.NoError(t, err)
	for _, s := range []Scheme{b5, r9} {
		b, err := MarshalScheme(s)
		require.NoError(t, err)
		got, err := UnmarshalScheme(b)
		require.NoError(t, err, s.Name())
		require.Equal(t, s.UID(), got.UID())
		require.Equal(t, s.CorrectionCapability(), got.CorrectionCapability())
	}
}

func TestSchemeJSONKeys(t *testing.T) {
	s, _ := NewBCH(8, 2, 0)
	b, err := MarshalScheme(s)
	require.NoError(t, err)
	js := string(b)
	require.True(t, strings.HasPrefix(js, `{"s":"BCH_T2","k":8,"p":0,"t":2,"n":18,"uid":`), js)
	require.Contains(t, js, `"m":5`)
	require.NotContains(t, js, `"G"`)

	h, _ := NewHamming(4, 0)
	b, _ = MarshalScheme(h)
	require.Contains(t, string(b), `"G":[[`)
	require.Contains(t, string(b), `"H":[[`)
	require.Contains(t, string(b), `"R":[[`)
}

func TestSchemeJSONSkipsUnknownKeys(t *testing.T) {
	s, _ := NewHamming(4, 1)
	b, _ := MarshalScheme(s)
	js := strings.TrimSuffix(string(b), "}") + `,"miscorrection_profile":{"0":[1,2]},"note":"x"}`
	got, err := UnmarshalScheme([]byte(js))
	require.NoError(t, err)
	require.Equal(t, s.UID(), got.UID())
}

func TestSchemeJSONChecksum(t *testing.T) {
	s, _ := NewRepetition(4, 3, 0)
	b, _ := MarshalScheme(s)
	js := strings.Replace(string(b), `"p":0`, `"p":1`, 1)
	_, err := UnmarshalScheme([]byte(js))
	require.True(t, errors.Is(err, ErrChecksum), "%v", err)

	_, err = UnmarshalScheme([]byte(`{"s":"HSC","k":4,"p":0,"uid":1}`))
	require.True(t, errors.Is(err, ErrInvariant))

	_, err = UnmarshalScheme([]byte(`{"s":"GOLAY","k":4,"p":0,"uid":1}`))
	require.True(t, errors.Is(err, ErrUnknownScheme))
}

func TestLoadScheme(t *testing.T) {
	s, _ := NewHamming(16, 2)
	b, _ := MarshalScheme(s)
	path := filepath.Join(t.TempDir(), "hsc.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	got, err := LoadScheme(path)
	require.NoError(t, err)
	require.Equal(t, s.UID(), got.UID())

	_, err = LoadScheme(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
