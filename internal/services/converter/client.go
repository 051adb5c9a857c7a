package converter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrSpawn marks a conversion tool that could not be started at all
// (missing binary, permission denied). This path skips output discovery.
var ErrSpawn = errors.New("converter could not be started")

// ExitError reports a conversion run that started but exited nonzero.
// StderrTail carries a bounded slice of the tool's error output.
type ExitError struct {
	Code       int
	StderrTail string
}

func (e *ExitError) Error() string {
	tail := strings.TrimSpace(e.StderrTail)
	if tail == "" {
		return fmt.Sprintf("converter exited with status %d", e.Code)
	}
	return fmt.Sprintf("converter exited with status %d: %s", e.Code, tail)
}

// ExtractRequest describes one invocation of the conversion tool.
type ExtractRequest struct {
	JobID          string
	SourceRef      string
	OutputDir      string
	OutputBaseName string
	Format         string
	Metadata       map[string]string
}

// LineFunc receives one raw output line from the running tool.
type LineFunc func(line string)

// Extractor defines the behaviour the lifecycle controller needs from the
// conversion tool.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, onLine LineFunc) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr LineFunc) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the external conversion CLI.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a converter client. A zero timeout disables the per-run
// deadline.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("converter binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: timeout,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Extract runs the tool for one job, forwarding every stdout and stderr line
// to onLine. A nonzero exit is returned as *ExitError with the captured
// stderr tail; a tool that cannot start is returned wrapped in ErrSpawn.
func (c *Client) Extract(ctx context.Context, req ExtractRequest, onLine LineFunc) error {
	if strings.TrimSpace(req.SourceRef) == "" {
		return errors.New("source reference required")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return errors.New("output directory required")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tail := newTailBuffer(maxStderrTailBytes)
	forward := func(line string) {
		if onLine != nil {
			onLine(line)
		}
	}
	forwardStderr := func(line string) {
		tail.Append(line)
		forward(line)
	}

	err := c.exec.Run(runCtx, c.binary, c.buildArgs(req), forward, forwardStderr)
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), StderrTail: tail.String()}
	}
	return err
}

func (c *Client) buildArgs(req ExtractRequest) []string {
	format := strings.TrimSpace(req.Format)
	if format == "" {
		format = "mp3"
	}
	base := strings.TrimSpace(req.OutputBaseName)
	if base == "" {
		base = req.JobID
	}
	args := []string{
		"--extract-audio",
		"--audio-format", format,
		"--no-playlist",
		"--newline",
		"--output", filepath.Join(req.OutputDir, base+".%(ext)s"),
	}
	for _, key := range sortedKeys(req.Metadata) {
		args = append(args, "--metadata", key+"="+req.Metadata[key])
	}
	return append(args, req.SourceRef)
}

func sortedKeys(values map[string]string) []string {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// maxStderrTailBytes bounds how much tool error output is preserved for the
// job's error detail.
const maxStderrTailBytes = 4096

type tailBuffer struct {
	limit int
	lines []string
	size  int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Append(line string) {
	b.lines = append(b.lines, line)
	b.size += len(line) + 1
	for len(b.lines) > 1 && b.size > b.limit {
		b.size -= len(b.lines[0]) + 1
		b.lines = b.lines[1:]
	}
}

func (b *tailBuffer) String() string {
	return strings.Join(b.lines, "\n")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr LineFunc) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	var group errgroup.Group
	group.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
		return scanner.Err()
	})
	group.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if onStderr != nil {
				onStderr(scanner.Text())
			}
		}
		return scanner.Err()
	})

	scanErr := group.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return waitErr
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}
