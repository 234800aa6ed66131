package env

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einsim-go/einsim/internal/log"
)

func TestEmitAndPrintf(t *testing.T) {
	var out, progress, logs bytes.Buffer
	e := New(&out, &progress, log.New(slog.LevelInfo, &logs), 1)
	require.NotEmpty(t, e.RunID)

	require.NoError(t, e.Emit("[DATA] a"))
	e.Printf("Jobs remaining: %d/%d\n", 1, 2)
	require.Equal(t, "[DATA] a\n", out.String())
	require.Equal(t, "Jobs remaining: 1/2\n", progress.String())

	e.Verbosity = 2
	require.NoError(t, e.Emit("[DATA] b"))
	require.Contains(t, progress.String(), "[DATA] b\n")
	require.Equal(t, uint64(2), e.Sink.Lines())

	e.Module("sim").Info("hello")
	require.Contains(t, logs.String(), "run="+e.RunID)
	require.Contains(t, logs.String(), "module=sim")
}

func TestNilProgress(t *testing.T) {
	var out bytes.Buffer
	e := New(&out, nil, nil, 2)
	e.Printf("ignored")
	require.NoError(t, e.Emit("x"))
	require.Equal(t, "x\n", out.String())
}
