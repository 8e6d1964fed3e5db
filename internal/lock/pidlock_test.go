package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquirePIDLockWritesPID(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "frontctl.pid")
	l, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("AcquirePIDLock: %v", err)
	}
	t.Cleanup(func() { _ = l.Release() })

	b, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(b)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("expected own PID in lock file, got %q", b)
	}
	if l.Path() != lockPath {
		t.Fatalf("Path() = %q, want %q", l.Path(), lockPath)
	}
}

func TestAcquirePIDLockIsExclusive(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "nested", "frontctl.pid")
	first, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("AcquirePIDLock: %v", err)
	}

	if _, err := AcquirePIDLock(lockPath); err == nil {
		t.Fatal("expected second acquire to fail while the lock is held")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	_ = second.Release()
	// Releasing twice is a no-op.
	if err := second.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestActivePID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	pid, active, err := ActivePID(filepath.Join(dir, "missing.pid"))
	if err != nil || active || pid != 0 {
		t.Fatalf("missing file: pid=%d active=%v err=%v", pid, active, err)
	}

	own := filepath.Join(dir, "own.pid")
	if err := os.WriteFile(own, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, active, err = ActivePID(own)
	if err != nil || !active || pid != os.Getpid() {
		t.Fatalf("own pid: pid=%d active=%v err=%v", pid, active, err)
	}

	garbage := filepath.Join(dir, "garbage.pid")
	if err := os.WriteFile(garbage, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, active, err := ActivePID(garbage); err != nil || active {
		t.Fatalf("garbage: active=%v err=%v", active, err)
	}
}
