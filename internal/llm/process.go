package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultLocalCommand = "ollama"
	DefaultLocalModel   = "llama3"

	// waitDelay bounds how long output pipes are drained after the context kills the process.
	waitDelay = 2 * time.Second
)

type ProcessConfig struct {
	Name    string
	Command string
	// Args defaults to ["run", Model].
	Args  []string
	Model string
}

// ProcessBackend runs a local inference executable per prompt. The prompt is written to
// stdin and the completion is read from stdout.
type ProcessBackend struct {
	name    string
	command string
	args    []string
}

func NewProcessBackend(cfg ProcessConfig) *ProcessBackend {
	if cfg.Name == "" {
		cfg.Name = "Ollama"
	}
	if cfg.Command == "" {
		cfg.Command = DefaultLocalCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLocalModel
	}
	args := cfg.Args
	if args == nil {
		args = []string{"run", cfg.Model}
	}
	return &ProcessBackend{
		name:    cfg.Name,
		command: cfg.Command,
		args:    args,
	}
}

func (b *ProcessBackend) Name() string {
	return b.name
}

// Generate waits for the process to exit. Output bytes that are not valid UTF-8 are
// replaced with U+FFFD.
func (b *ProcessBackend) Generate(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, b.command, b.args...)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := decode(stderr.Bytes()); msg != "" {
				return "", fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), msg)
			}
		}
		return "", err
	}

	return decode(stdout.Bytes()), nil
}

func decode(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "\uFFFD"))
}
