package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status contains git hygiene information for a vault
type Status struct {
	IsRepo           bool
	LockDirTracked   bool     // sealed slots are committed (good)
	UnlockDirIgnored bool     // staging directory is in .gitignore (good)
	TrackedStaged    []string // plaintext staged files tracked by git (bad)
	UnignoredStaged  []string // plaintext staged files not ignored (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(ctx context.Context, workDir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a path (file or directory) has files tracked by git
func IsTracked(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a path is ignored by git (handles all .gitignore files)
func IsIgnored(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir

	// git check-ignore returns exit code 0 if the path is ignored
	return cmd.Run() == nil
}

// Check inspects how the lock and unlock directories relate to git.
// staged lists plaintext files relative to unlockDir.
func Check(ctx context.Context, lockDir, unlockDir string, staged []string) (*Status, error) {
	lockAbs, err := filepath.Abs(lockDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", lockDir, err)
	}
	unlockAbs, err := filepath.Abs(unlockDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", unlockDir, err)
	}

	workDir := filepath.Dir(lockAbs)
	status := &Status{}
	if !IsGitRepo(ctx, workDir) {
		return status, nil
	}
	status.IsRepo = true

	status.LockDirTracked = IsTracked(ctx, workDir, lockAbs)
	status.UnlockDirIgnored = IsIgnored(ctx, workDir, unlockAbs)

	for _, rel := range staged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs := filepath.Join(unlockAbs, filepath.FromSlash(rel))
		if IsTracked(ctx, workDir, abs) {
			status.TrackedStaged = append(status.TrackedStaged, rel)
		}
		if !status.UnlockDirIgnored && !IsIgnored(ctx, workDir, abs) {
			status.UnignoredStaged = append(status.UnignoredStaged, rel)
		}
	}

	return status, nil
}

// FormatStatus formats git status for display
func FormatStatus(status *Status, lockDir, unlockDir string) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	if status.LockDirTracked {
		result.WriteString(fmt.Sprintf("   ok: %s is tracked by git\n", lockDir))
	} else {
		result.WriteString(fmt.Sprintf("   warning: %s not tracked (run: git add %s)\n", lockDir, lockDir))
	}

	// Plaintext under version control is the critical issue
	if len(status.TrackedStaged) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d plaintext file(s) tracked by git:\n", len(status.TrackedStaged)))
		for _, file := range status.TrackedStaged {
			path := filepath.ToSlash(filepath.Join(unlockDir, filepath.FromSlash(file)))
			result.WriteString(fmt.Sprintf("      - %s (run: git rm --cached %s)\n", path, path))
		}
	}

	if status.UnlockDirIgnored {
		result.WriteString(fmt.Sprintf("   ok: %s is in .gitignore\n", unlockDir))
	} else {
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add it to .gitignore)\n", unlockDir))
		for _, file := range status.UnignoredStaged {
			result.WriteString(fmt.Sprintf("      - %s\n", file))
		}
	}

	return result.String()
}
