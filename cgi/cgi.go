// Package cgi runs CGI/1.1 scripts: it builds the meta-variables of a request, spawns the
// interpreter with the request body piped into its standard input and collects the output.
package cgi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// stdinChunk is the largest portion of the body written into the child's stdin at once.
const stdinChunk = 32 * 1024

// waitDelay bounds the time spent draining the output of a killed child, whose own
// children may still hold the pipes.
const waitDelay = time.Second

// EnvVar is a single meta-variable passed to the script. Order is kept as is.
type EnvVar struct {
	Key, Value string
}

func (e EnvVar) String() string {
	return e.Key + "=" + e.Value
}

// Command describes a single script invocation.
type Command struct {
	// Interpreter is the program the script is run with. Empty means the script is
	// executed directly.
	Interpreter string
	// Script is the filesystem path of the script.
	Script string
	// Dir is the working directory of the child. Empty means the directory of the server.
	Dir string
	// Env is the full environment of the child.
	Env []EnvVar
	// Body is fed into the child's stdin.
	Body []byte
}

// Result is the outcome of a finished script.
type Result struct {
	// Output is everything the script has written into its stdout.
	Output []byte
	// Stderr is collected for the logs only.
	Stderr []byte
	// ExitStatus is the exit code of the child. Non-zero doesn't constitute an error
	// on its own, it's up to the caller to decide.
	ExitStatus int
}

// Runner runs the script synchronously. An error is returned only when the script
// couldn't be spawned or awaited.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs scripts as child processes.
type ExecRunner struct {
	// Timeout kills the child once exceeded. Zero disables it.
	Timeout time.Duration
}

func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

func (e *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	return Spawn(ctx, cmd)
}

// Spawn starts the child, streams the body into its stdin while tracking the remaining
// bytes, and waits for it to exit.
func Spawn(ctx context.Context, command Command) (Result, error) {
	var args []string
	name := command.Script
	if len(command.Interpreter) > 0 {
		name, args = command.Interpreter, []string{command.Script}
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = command.Dir
	cmd.WaitDelay = waitDelay
	cmd.Env = make([]string, 0, len(command.Env))
	for _, variable := range command.Env {
		cmd.Env = append(cmd.Env, variable.String())
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdin pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		_ = stdin.Close()
		return Result{}, fmt.Errorf("start %s: %w", name, err)
	}

	var feeder errgroup.Group
	feeder.Go(func() error {
		return feed(stdin, command.Body)
	})

	waitErr := cmd.Wait()
	feedErr := feeder.Wait()

	result := Result{
		Output: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) || ctx.Err() != nil {
			return result, fmt.Errorf("wait %s: %w", name, errors.Join(waitErr, ctx.Err()))
		}

		result.ExitStatus = exitErr.ExitCode()
	}

	if feedErr != nil && result.ExitStatus == 0 {
		// the script must have exited without consuming the whole body, which is legal
		// as long as it succeeded
		if !isBrokenPipe(feedErr) {
			return result, fmt.Errorf("feed stdin: %w", feedErr)
		}
	}

	return result, nil
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

func feed(stdin io.WriteCloser, body []byte) error {
	defer stdin.Close()

	for remaining := len(body); remaining > 0; {
		n, err := stdin.Write(body[len(body)-remaining:][:min(remaining, stdinChunk)])
		remaining -= n
		if err != nil {
			return err
		}
	}

	return nil
}
