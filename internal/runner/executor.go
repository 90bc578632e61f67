package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"pbuilder/internal/model"
)

// Runner executes child processes. Every component that launches a process
// takes a Runner so tests can substitute a recording fake.
type Runner interface {
	// Run executes cmd to completion with stdout and stderr combined.
	Run(cmd model.Command) (model.RunResult, error)
	// Stream relays each output line of cmd to w as soon as it is read and
	// returns the exit code once the process has terminated.
	Stream(cmd model.Command, w io.Writer) (int, error)
}

// Executor is the os/exec backed Runner.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) command(c model.Command) *exec.Cmd {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	return cmd
}

// Run executes the command in buffered mode.
func (e *Executor) Run(c model.Command) (model.RunResult, error) {
	cmd := e.command(c)
	var out []byte
	var err error
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
		out, err = cmd.Output()
	} else {
		out, err = cmd.CombinedOutput()
	}
	result := model.RunResult{Output: splitLines(string(out))}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Never started (missing binary, permission denied, bad Dir)
			result.ExitCode = -1
		}
		return result, &CommandFailed{Command: c, ExitCode: result.ExitCode, Output: result.Output, Err: err}
	}
	return result, nil
}

// Stream executes the command in streaming mode. stdout and stderr share a
// single pipe so lines keep the order the child wrote them in. A non-zero
// exit is reported through the returned code; the error is reserved for
// failures to start, read or reap the child.
func (e *Executor) Stream(c model.Command, w io.Writer) (int, error) {
	cmd := e.command(c)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", c.Name, err)
	}

	readErr := relayLines(bufio.NewReaderSize(stdout, 64*1024), w)
	if readErr != nil {
		// Drain so the child does not block on a full pipe before Wait.
		io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait %s: %w", c.Name, err)
	}
	if readErr != nil {
		return 0, fmt.Errorf("read %s output: %w", c.Name, readErr)
	}
	return 0, nil
}

// relayLines copies r to w line by line until EOF. Lines have no length
// limit and an unterminated last line is completed with a newline.
func relayLines(r *bufio.Reader, w io.Writer) error {
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			fmt.Fprintln(w, line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
