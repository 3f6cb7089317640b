//nolint:testpackage // Tests require internal access for thorough testing
package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/config"
	"github.com/abatilo/triage/internal/output"
)

func TestOpenBackendLocal(t *testing.T) {
	dir := t.TempDir()
	env := &config.Env{}
	env.StorageEnv.Type = "local"
	env.BaseDir = dir

	backend, location, closeFn, err := openBackend(context.Background(), env)
	if err != nil {
		t.Fatalf("openBackend failed: %v", err)
	}
	defer closeFn()

	if location != dir {
		t.Errorf("location = %q, want %q", location, dir)
	}
	if err = backend.Write(context.Background(), "probe.txt", []byte("ok")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := backend.Read(context.Background(), "probe.txt")
	if err != nil || string(data) != "ok" {
		t.Errorf("Read = %q, %v; want %q, nil", data, err, "ok")
	}
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRIAGE_STORAGE_BASE_DIR", dir)
	t.Setenv("TRIAGE_CAPACITY_HOURS", "8")
	t.Setenv("TRIAGE_LOG_LEVEL", "error")

	a, err := newApp(context.Background())
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.close()

	if a.svc.Location() != dir {
		t.Errorf("Location() = %q, want %q", a.svc.Location(), dir)
	}
	if a.env.CapacityHours != 8 {
		t.Errorf("CapacityHours = %v, want 8", a.env.CapacityHours)
	}
	if err = a.svc.Init(context.Background(), false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
}

func TestNewAppRejectsBadStorage(t *testing.T) {
	t.Setenv("TRIAGE_STORAGE_TYPE", "ftp")

	if _, err := newApp(context.Background()); err == nil {
		t.Fatal("newApp should fail for an unknown storage type")
	}
}

func TestPrintErrorClosesAppBeforeExit(t *testing.T) {
	t.Setenv("TRIAGE_STORAGE_BASE_DIR", t.TempDir())
	t.Setenv("TRIAGE_LOG_LEVEL", "error")

	origExit, origFormatter := exit, formatter
	t.Cleanup(func() {
		exit, formatter = origExit, origFormatter
		closers = nil
	})
	formatter = output.NewHumanFormatter()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	getApp(cmd)
	if len(closers) != 1 {
		t.Fatalf("getApp registered %d closers, want 1", len(closers))
	}

	var order []string
	closers = append(closers, func() { order = append(order, "close") })
	exit = func(int) { order = append(order, "exit") }

	printError(errors.New("boom"))

	if got := strings.Join(order, ","); got != "close,exit" {
		t.Errorf("order = %q, want %q", got, "close,exit")
	}
	if len(closers) != 0 {
		t.Errorf("closers not cleared: %d left", len(closers))
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{InvalidDateError{Value: "06/05"}, `invalid date "06/05": expected YYYY-MM-DD`},
		{MissingAssigneeError{ID: "abc"}, "assign abc: give a name or use --suggest"},
		{MissingSecretError{}, "TRIAGE_API_SECRET is not set"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestRootCommandsRegistered(t *testing.T) {
	cmds := []interface{ Name() string }{
		initCmd(), addCmd(), listCmd(), showCmd(), editCmd(), completeCmd(),
		suggestCmd(), assignCmd(), statsCmd(), importCmd(), exportCmd(),
		serveCmd(), tokenCmd(), leaseCmd(),
	}
	var names []string
	for _, c := range cmds {
		names = append(names, c.Name())
	}
	want := "init add list show edit complete suggest assign stats import export serve token lease"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("commands = %q, want %q", got, want)
	}
}
