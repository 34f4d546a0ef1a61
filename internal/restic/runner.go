package restic

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
)

type (
	Command struct {
		Args []string
		Env  []string
	}

	Result struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// LineFunc receives each stdout line as the tool emits it, in order.
	LineFunc func(line string)

	// Runner is the narrow seam between the orchestrator and the external
	// tool. The real implementation execs the restic binary; tests substitute
	// a fake.
	Runner interface {
		Run(ctx context.Context, cmd Command, onLine LineFunc) (Result, error)
	}
)

type execRunner struct {
	bin string
}

func NewRunner(bin string) Runner {
	return &execRunner{bin: bin}
}

func (e *execRunner) Run(ctx context.Context, cmd Command, onLine LineFunc) (Result, error) {
	proc := exec.CommandContext(ctx, e.bin, cmd.Args...)
	proc.Env = append(os.Environ(), cmd.Env...)

	var stderr bytes.Buffer
	proc.Stderr = &stderr

	stdout, err := proc.StdoutPipe()
	if err != nil {
		return Result{}, err
	}

	if err := proc.Start(); err != nil {
		return Result{}, err
	}

	var captured bytes.Buffer
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		captured.WriteString(line)
		captured.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}

	err = proc.Wait()
	result := Result{
		ExitCode: proc.ProcessState.ExitCode(),
		Stdout:   captured.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// nonzero exit carries meaning; the caller decides what to do with it
			return result, nil
		}
		return result, err
	}
	return result, nil
}
