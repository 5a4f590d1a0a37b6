package netif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError is returned when an external command fails.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	for i, arg := range e.Args {
		if i > 0 {
			b.WriteByte(' ')
		}
		if strings.Contains(arg, " ") {
			b.WriteString("'" + arg + "'")
		} else {
			b.WriteString(arg)
		}
	}
	return fmt.Sprintf("cmd: %s\nexit status: %d\nout: %s", b.String(), e.ExitCode, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exec runs a command to completion.
type Exec func(ctx context.Context, name string, args ...string) error

func runCmd(ctx context.Context, name string, args ...string) error {
	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &CommandError{
			Args:     cmd.Args,
			ExitCode: exitCode,
			Output:   strings.Trim(out.String(), " \t\n"),
			Err:      err,
		}
	}
	return nil
}
