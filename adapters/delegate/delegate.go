// Package delegate executes external programs for dynamic routes and
// validates their structured responses.
package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/domain/hop"
	"github.com/artpar/hopgate/ports"
)

// Runner abstracts process execution so tests can substitute canned output.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (stdout, stderr []byte, err error)
}

// execRunner executes programs using os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, path string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Invoker runs delegate programs under a wall-clock timeout. Argument
// words are passed as separate process arguments; nothing is interpreted
// by a shell, so user-controlled query text cannot inject commands. The
// program must print a single JSON object to stdout with exactly one of
// the keys "redirect" or "body".
type Invoker struct {
	timeout time.Duration
	runner  Runner
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewInvoker creates an invoker backed by os/exec.
func NewInvoker(timeout time.Duration, collector *metrics.Collector, logger zerolog.Logger) *Invoker {
	return NewInvokerWithRunner(timeout, execRunner{}, collector, logger)
}

// NewInvokerWithRunner creates an invoker with a custom runner.
// Useful for testing with mock process output.
func NewInvokerWithRunner(timeout time.Duration, runner Runner, collector *metrics.Collector, logger zerolog.Logger) *Invoker {
	return &Invoker{
		timeout: timeout,
		runner:  runner,
		metrics: collector,
		logger:  logger,
	}
}

// Invoke runs the program at path with the given argument words and
// parses its response. The process is killed once the timeout elapses.
// Spawn failures, non-zero exits, timeouts and non-conforming output all
// come back as errors carrying the underlying cause.
func (i *Invoker) Invoke(ctx context.Context, path string, args []string) (hop.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := i.runner.Run(ctx, path, args)
	elapsed := time.Since(start)
	i.metrics.DelegateDuration.Observe(elapsed.Seconds())

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			i.metrics.DelegateInvocations.WithLabelValues(metrics.DelegateTimeout).Inc()
			i.logger.Error().
				Str("path", path).
				Dur("elapsed", elapsed).
				Msg("delegate timed out and was killed")
			return hop.Action{}, fmt.Errorf("delegate %s timed out after %s", path, i.timeout)
		}

		i.metrics.DelegateInvocations.WithLabelValues(metrics.DelegateError).Inc()
		detail := strings.TrimSpace(string(stderr))
		i.logger.Error().
			Str("path", path).
			Str("stderr", detail).
			Err(err).
			Msg("delegate execution failed")
		if detail != "" {
			return hop.Action{}, fmt.Errorf("delegate %s: %w: %s", path, err, detail)
		}
		return hop.Action{}, fmt.Errorf("delegate %s: %w", path, err)
	}

	action, err := parseResponse(stdout)
	if err != nil {
		i.metrics.DelegateInvocations.WithLabelValues(metrics.DelegateError).Inc()
		i.logger.Error().
			Str("path", path).
			Err(err).
			Msg("delegate produced a non-conforming response")
		return hop.Action{}, fmt.Errorf("delegate %s: %w", path, err)
	}

	i.metrics.DelegateInvocations.WithLabelValues(metrics.DelegateOK).Inc()
	i.logger.Debug().
		Str("path", path).
		Str("kind", string(action.Kind)).
		Dur("elapsed", elapsed).
		Msg("delegate resolved")
	return action, nil
}

// parseResponse validates the delegate output: one JSON object, exactly
// one of "redirect" or "body", both strings, nothing trailing.
func parseResponse(out []byte) (hop.Action, error) {
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.DisallowUnknownFields()

	var raw struct {
		Redirect *string `json:"redirect"`
		Body     *string `json:"body"`
	}
	if err := dec.Decode(&raw); err != nil {
		return hop.Action{}, fmt.Errorf("malformed response: %w", err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return hop.Action{}, fmt.Errorf("expected a single JSON object")
	}

	switch {
	case raw.Redirect != nil && raw.Body != nil:
		return hop.Action{}, fmt.Errorf("response sets both redirect and body")
	case raw.Redirect != nil:
		return hop.RedirectAction(*raw.Redirect), nil
	case raw.Body != nil:
		return hop.BodyAction(*raw.Body), nil
	default:
		return hop.Action{}, fmt.Errorf("response sets neither redirect nor body")
	}
}

var _ ports.Invoker = (*Invoker)(nil)
