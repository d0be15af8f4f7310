// Package runner invokes the external speech synthesizer as a subprocess
// and reports the resulting output size.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rpnahm/jobsched/job"
)

// Config configures a Runner's invocation of the synthesizer binary.
type Config struct {
	// SynthPath is the path to the synthesizer executable (default "piper").
	SynthPath string
	// ModelPath is passed as the -m argument (default "arctic.onnx").
	ModelPath string
}

// Runner runs one job's synthesizer subprocess at a time per call; it holds
// no state of its own and never touches the registry.
type Runner struct {
	synthPath string
	modelPath string
}

// New creates a Runner from cfg, filling in defaults for empty fields.
func New(cfg Config) *Runner {
	r := &Runner{synthPath: cfg.SynthPath, modelPath: cfg.ModelPath}
	if r.synthPath == "" {
		r.synthPath = "piper"
	}
	if r.modelPath == "" {
		r.modelPath = "arctic.onnx"
	}
	return r
}

// Run spawns the synthesizer against j's input and output paths, wires
// stdin to the input file opened read-only, redirects stdout/stderr to the
// null device, and waits for termination. It returns the resulting output
// file's size, which is zero on any failure (abnormal termination or a
// subprocess exit code other than zero). j must have State StateRunning and
// a non-empty OutputPath; Run does not mutate j.
func (r *Runner) Run(j *job.Job) (outputSize int64, err error) {
	in, err := os.Open(j.InputPath)
	if err != nil {
		return 0, fmt.Errorf("opening input %s for reading: %w", j.InputPath, err)
	}
	defer in.Close()

	null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("opening null sink: %w", err)
	}
	defer null.Close()

	cmd := exec.Command(r.synthPath, "-f", j.OutputPath, "-m", r.modelPath)
	cmd.Stdin = in
	cmd.Stdout = null
	cmd.Stderr = null

	runErr := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		// clean exit, fall through to stat the output
	case errors.As(runErr, &exitErr):
		return 0, nil
	default:
		return 0, fmt.Errorf("running synthesizer for job %d: %w", j.ID, runErr)
	}

	info, statErr := os.Stat(j.OutputPath)
	if statErr != nil {
		return 0, nil
	}
	return info.Size(), nil
}
