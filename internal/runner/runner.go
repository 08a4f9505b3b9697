package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Roelanb/autoremove-webui/internal/observability"
)

// DefaultTimeout bounds a single autoremove-torrents invocation.
const DefaultTimeout = 300 * time.Second

// ErrTimeout is returned when the command outlives its timeout.
var ErrTimeout = errors.New("Run timed out.")

// Result is what preview/run report back to the editor.
type Result struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
	Code   int    `json:"code"`
}

type Options struct {
	Command string
	Opts    []string
	WorkDir string
	Timeout time.Duration
}

// Runner invokes autoremove-torrents. Real runs are serialized; previews
// may overlap with anything.
type Runner struct {
	opts  Options
	log   observability.Logger
	runMu sync.Mutex
}

func New(log observability.Logger, opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Runner{opts: opts, log: log}
}

// Preview runs with --view, which lists what would be removed.
func (r *Runner) Preview(ctx context.Context) (Result, error) {
	return r.exec(ctx, PreviewArgs(r.opts.Opts), "preview")
}

// Run performs the actual removal.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.exec(ctx, append([]string(nil), r.opts.Opts...), "run")
}

// PreviewArgs drops any -v/--view from opts and appends --view.
func PreviewArgs(opts []string) []string {
	out := make([]string, 0, len(opts)+1)
	for _, o := range opts {
		if o == "-v" || o == "--view" {
			continue
		}
		out = append(out, o)
	}
	return append(out, "--view")
}

func (r *Runner) exec(ctx context.Context, args []string, mode string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.opts.Command, args...)
	// children that inherit stdout must not hold Wait open past the kill
	cmd.WaitDelay = 2 * time.Second
	if r.opts.WorkDir != "" {
		if st, err := os.Stat(r.opts.WorkDir); err == nil && st.IsDir() {
			cmd.Dir = r.opts.WorkDir
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	r.log.Infow("autoremove started", "mode", mode, "cmd", r.opts.Command, "args", args)
	err := cmd.Run()
	out := stdout.String() + stderr.String()

	if ctx.Err() == context.DeadlineExceeded {
		r.log.Errorw("autoremove timed out", "mode", mode, "timeout", r.opts.Timeout)
		return Result{OK: false, Output: ErrTimeout.Error(), Code: -1}, ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.log.Errorw("autoremove failed to start", "mode", mode, "error", err)
			return Result{OK: false, Output: err.Error(), Code: -1}, fmt.Errorf("exec %s: %w", r.opts.Command, err)
		}
		code := exitErr.ExitCode()
		r.log.Warnw("autoremove exited non-zero", "mode", mode, "code", code, "elapsed", time.Since(start))
		return Result{OK: false, Output: out, Code: code}, nil
	}
	r.log.Infow("autoremove finished", "mode", mode, "elapsed", time.Since(start))
	return Result{OK: true, Output: out, Code: 0}, nil
}
