// Package cmd implements the jobsched command-line entry point: flag
// parsing plus the interactive REPL that drives the control surface.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rpnahm/jobsched/control"
	"github.com/rpnahm/jobsched/internal/logging"
	"github.com/rpnahm/jobsched/policy"
	"github.com/rpnahm/jobsched/pool"
	"github.com/rpnahm/jobsched/registry"
	"github.com/rpnahm/jobsched/runner"
)

// Execute runs the jobsched command using program args and exits on
// failure.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	var (
		synthPath  string
		modelPath  string
		outputCap  int64
		initPolicy string
	)
	cmd := &cobra.Command{
		Use:   "jobsched",
		Short: "Interactive text-to-speech job scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.InOrStdin(), cmd.OutOrStdout(), synthPath, modelPath, outputCap, initPolicy)
		},
	}
	cmd.Flags().StringVar(&synthPath, "synth", "piper", "path to the synthesizer executable")
	cmd.Flags().StringVar(&modelPath, "model", "arctic.onnx", "path to the synthesizer model file")
	cmd.Flags().Int64Var(&outputCap, "output-cap", registry.OutputCap, "output-size admission gate, in bytes")
	cmd.Flags().StringVar(&initPolicy, "policy", string(policy.FCFSName), "initial scheduling policy: fcfs, sjf, or balanced")
	return cmd
}

func runREPL(stdin io.Reader, stdout io.Writer, synthPath, modelPath string, outputCap int64, initPolicy string) error {
	logger := logging.New(os.Stderr, "jobsched: ")

	reg := registry.New(registry.Config{OutputCap: outputCap, Logger: logger})
	rn := runner.New(runner.Config{SynthPath: synthPath, ModelPath: modelPath})

	var ctrl *control.Controller
	p := pool.New(reg, rn, func() policy.Selector { return ctrl.Selector() }, logger)

	var err error
	ctrl, err = control.New(reg, p, policy.Name(initPolicy))
	if err != nil {
		return fmt.Errorf("jobsched: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "jobsched> ",
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("jobsched: starting REPL: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) > 2 {
			fmt.Fprintln(stdout, "jobsched: too many arguments! Must pick from one of the\nspecified arguments, and only use up to two words!")
			continue
		}
		if dispatch(ctrl, stdout, words) {
			return nil
		}
	}
}

// dispatch runs one parsed REPL command and reports whether the REPL should
// terminate (the `quit` command).
func dispatch(ctrl *control.Controller, stdout io.Writer, words []string) (quit bool) {
	name := words[0]
	arg := ""
	if len(words) == 2 {
		arg = words[1]
	}

	switch name {
	case "quit":
		return true

	case "submit":
		if arg == "" {
			fmt.Fprintln(stdout, "jobsched-submit: must use the format submit <text_filename>!")
			return false
		}
		id, err := ctrl.Submit(arg)
		if err != nil {
			fmt.Fprintln(stdout, err)
			return false
		}
		fmt.Fprintf(stdout, "submitted job %d\n", id)

	case "list":
		if arg != "" {
			fmt.Fprintln(stdout, "jobsched-list: must use format: list")
			return false
		}
		fmt.Fprint(stdout, ctrl.List())

	case "nthreads":
		if arg == "" {
			fmt.Fprintln(stdout, "jobsched-nthreads: usage must be nthreads <number-of-threads>!")
			return false
		}
		n, err := control.ParseThreadCount(arg)
		if err != nil {
			fmt.Fprintln(stdout, "jobsched-nthreads: error reading number of threads or invalid number!")
			return false
		}
		if err := ctrl.NThreads(n); err != nil {
			fmt.Fprintln(stdout, err)
		}

	case "wait":
		if arg == "" {
			fmt.Fprintln(stdout, "jobsched-wait: usage: wait <jobid>")
			return false
		}
		id, err := control.ParseJobID(arg)
		if err != nil {
			fmt.Fprintln(stdout, "jobsched-wait: error reading jobid!")
			return false
		}
		report, err := ctrl.Wait(id)
		if err != nil {
			fmt.Fprintln(stdout, err)
			return false
		}
		fmt.Fprint(stdout, report)

	case "waitall":
		if arg != "" {
			fmt.Fprintln(stdout, "jobsched-waitall: usage: waitall")
			return false
		}
		ctrl.WaitAll()

	case "delete":
		if arg == "" {
			fmt.Fprintln(stdout, "jobsched-delete: usage: delete <jobid>")
			return false
		}
		id, err := control.ParseJobID(arg)
		if err != nil {
			fmt.Fprintln(stdout, "jobsched-delete: error reading jobid or invalid jobid!")
			return false
		}
		if err := ctrl.Delete(id); err != nil {
			fmt.Fprintln(stdout, err)
		}

	case "schedule":
		if arg == "" {
			fmt.Fprintln(stdout, "jobsched-schedule: usage: schedule <fcfs|sjf|balanced>")
			return false
		}
		if err := ctrl.Schedule(arg); err != nil {
			fmt.Fprintln(stdout, err)
		}

	case "help":
		fmt.Fprint(stdout, control.Help())

	default:
		fmt.Fprintf(stdout, "jobsched: command %q not found. Try \"help\".\n", name)
	}
	return false
}
