package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpnahm/jobsched/job"
)

// stubSynth writes a POSIX shell script standing in for the synthesizer
// binary. It parses "-f <output> -m <model>" and copies stdin to the
// output, exiting with exitCode.
func stubSynth(t *testing.T, dir string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub synthesizer script requires a POSIX shell")
	}
	script := filepath.Join(dir, "stub-piper")
	body := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -f) out="$2"; shift 2 ;;
    -m) shift 2 ;;
    *) shift ;;
  esac
done
cat > "$out"
exit ` + itoa(exitCode) + `
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func TestRunSuccessProducesOutput(t *testing.T) {
	dir := t.TempDir()
	synth := stubSynth(t, dir, 0)

	input := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello world"), 0o644))
	output := filepath.Join(dir, "job1.wav")

	r := New(Config{SynthPath: synth, ModelPath: "arctic.onnx"})
	j := &job.Job{ID: 1, InputPath: input, OutputPath: output, State: job.StateRunning}

	size, err := r.Run(j)
	require.NoError(t, err)
	assert.EqualValues(t, len("hello world"), size)
}

func TestRunFailureYieldsZeroSize(t *testing.T) {
	dir := t.TempDir()
	synth := stubSynth(t, dir, 1)

	input := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello"), 0o644))
	output := filepath.Join(dir, "job2.wav")

	r := New(Config{SynthPath: synth, ModelPath: "arctic.onnx"})
	j := &job.Job{ID: 2, InputPath: input, OutputPath: output, State: job.StateRunning}

	size, err := r.Run(j)
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestRunMissingInputIsError(t *testing.T) {
	dir := t.TempDir()
	synth := stubSynth(t, dir, 0)

	r := New(Config{SynthPath: synth})
	j := &job.Job{ID: 3, InputPath: filepath.Join(dir, "missing.txt"), OutputPath: filepath.Join(dir, "job3.wav")}

	_, err := r.Run(j)
	assert.Error(t, err)
}

func TestNewFillsDefaults(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, "piper", r.synthPath)
	assert.Equal(t, "arctic.onnx", r.modelPath)
}
