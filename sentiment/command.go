package sentiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// CommandClassifier runs an external classifier. The text is written to stdin and the
// label is read from the first line of stdout.
type CommandClassifier struct {
	argv []string
	log  zerolog.Logger
}

func NewCommandClassifier(argv []string, log zerolog.Logger) (*CommandClassifier, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("sentiment command is empty")
	}
	return &CommandClassifier{argv: append([]string(nil), argv...), log: log}, nil
}

func (c *CommandClassifier) Classify(ctx context.Context, text string) (Label, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug().Strs("argv", c.argv).Int("text_bytes", len(text)).Msg("Running sentiment classifier")

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("sentiment classifier interrupted: %w", ctx.Err())
		}
		return "", fmt.Errorf("sentiment classifier failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	label := ParseLabel(line)
	if label == "" {
		return "", fmt.Errorf("sentiment classifier produced no label")
	}
	return label, nil
}
