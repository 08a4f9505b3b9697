package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "autoremove.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPreviewArgs(t *testing.T) {
	got := PreviewArgs([]string{"-c", "/app/config.yml", "-v", "--view", "-l", "/logs"})
	want := []string{"-c", "/app/config.yml", "-l", "/logs", "--view"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestPreviewPassesViewFlag(t *testing.T) {
	script := writeScript(t, `echo "args: $*"; echo warn >&2`)
	r := New(zap.NewNop().Sugar(), Options{Command: script, Opts: []string{"-c", "x.yml", "-v"}})

	res, err := r.Preview(context.Background())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !res.OK || res.Code != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Output != "args: -c x.yml --view\nwarn\n" {
		t.Fatalf("unexpected output %q", res.Output)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "removing"; exit 3`)
	r := New(zap.NewNop().Sugar(), Options{Command: script})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.OK || res.Code != 3 || !strings.Contains(res.Output, "removing") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)
	r := New(zap.NewNop().Sugar(), Options{Command: script, Timeout: 100 * time.Millisecond})

	res, err := r.Run(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if res.OK || res.Code != -1 || res.Output != "Run timed out." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunMissingCommand(t *testing.T) {
	r := New(zap.NewNop().Sugar(), Options{Command: filepath.Join(t.TempDir(), "missing")})
	res, err := r.Run(context.Background())
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("expected exec error, got %v", err)
	}
	if res.Code != -1 || res.OK {
		t.Fatalf("unexpected result %+v", res)
	}
}
