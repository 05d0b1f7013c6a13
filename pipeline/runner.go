package pipeline

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Command is one external process invocation. Env entries are appended to the
// parent environment.
type Command struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ProcessRunner runs a command to completion.
type ProcessRunner interface {
	Run(ctx context.Context, c Command) error
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	log    zerolog.Logger
}

func NewExecRunner(log zerolog.Logger) *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr, log: log}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.log.Info().Str("cmd", c.String()).Strs("env", c.Env).Msg("Running")
	if err := cmd.Run(); err != nil {
		return err
	}
	return nil
}
