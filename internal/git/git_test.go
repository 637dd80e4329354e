package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestCheckOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	status, err := Check(context.Background(), filepath.Join(dir, "vault-lock"), filepath.Join(dir, "vault-unlock"), nil)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if status.IsRepo {
		t.Skip("temporary directory is inside a git repository")
	}
	if FormatStatus(status, "vault-lock", "vault-unlock") != "" {
		t.Errorf("Expected no output outside a repository")
	}
}

func TestCheckInRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	lockDir := filepath.Join(dir, "vault-lock")
	unlockDir := filepath.Join(dir, "vault-unlock")
	writeFile(t, filepath.Join(lockDir, "001.vlt"), "sealed")
	writeFile(t, filepath.Join(unlockDir, "dir1", "fil1"), "plain")
	writeFile(t, filepath.Join(dir, ".gitignore"), "vault-unlock\n")
	runGit(t, dir, "add", "vault-lock", ".gitignore")

	status, err := Check(context.Background(), lockDir, unlockDir, []string{"dir1/fil1"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if !status.IsRepo {
		t.Fatal("Expected a git repository")
	}
	if !status.LockDirTracked {
		t.Error("Lock directory should be tracked")
	}
	if !status.UnlockDirIgnored {
		t.Error("Unlock directory should be ignored")
	}
	if len(status.TrackedStaged) != 0 || len(status.UnignoredStaged) != 0 {
		t.Errorf("Unexpected staged findings: %+v", status)
	}

	out := FormatStatus(status, "vault-lock", "vault-unlock")
	if !strings.Contains(out, "ok: vault-lock is tracked by git") {
		t.Errorf("Missing tracked line in:\n%s", out)
	}
	if !strings.Contains(out, "ok: vault-unlock is in .gitignore") {
		t.Errorf("Missing ignored line in:\n%s", out)
	}
}

func TestCheckFlagsTrackedPlaintext(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	lockDir := filepath.Join(dir, "vault-lock")
	unlockDir := filepath.Join(dir, "vault-unlock")
	writeFile(t, filepath.Join(unlockDir, "token"), "plain")
	runGit(t, dir, "add", "vault-unlock/token")

	status, err := Check(context.Background(), lockDir, unlockDir, []string{"token"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if len(status.TrackedStaged) != 1 || status.TrackedStaged[0] != "token" {
		t.Errorf("TrackedStaged = %v, want [token]", status.TrackedStaged)
	}
	if status.UnlockDirIgnored {
		t.Error("Unlock directory should not be ignored")
	}

	out := FormatStatus(status, "vault-lock", "vault-unlock")
	if !strings.Contains(out, "error: 1 plaintext file(s) tracked by git") {
		t.Errorf("Missing error line in:\n%s", out)
	}
}
