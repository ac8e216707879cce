package external

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// VerifyRemote checks if a git remote URL is valid
// Equivalent to: git ls-remote <url> HEAD
func VerifyRemote(url string) error {
	cmd := exec.Command("git", "ls-remote", url, "HEAD")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("invalid git remote: %w: %s", err, string(output))
	}

	return nil
}

// Status returns the git status output
// Equivalent to: git -C <repoPath> status --porcelain
func Status(repoPath string) (string, error) {
	cmd := exec.Command("git", "-C", repoPath, "status", "--porcelain")

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git status failed: %w", err)
	}

	return string(output), nil
}

// IsClean checks if the repository has no uncommitted changes
func IsClean(repoPath string) (bool, error) {
	status, err := Status(repoPath)
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(status) == "", nil
}

// IsGitRepo checks if a path is a git repository
func IsGitRepo(path string) bool {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--git-dir")
	err := cmd.Run()
	return err == nil
}

// RunInherit runs `git <args...>` in repoPath with stdin/stdout/stderr
// connected to the current process, for passthrough subcommands that
// are not otherwise wrapped by this package (push, checkout, init,
// arbitrary status/pull/clone invocations with user-supplied flags).
func RunInherit(repoPath string, args ...string) error {
	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// ExtractRepoName extracts the repository name from a git URL
// Handles various URL formats:
//   - https://github.com/user/repo.git -> repo
//   - git@github.com:user/repo.git -> repo
//   - https://github.com/user/repo -> repo
func ExtractRepoName(gitURL string) string {
	// Remove trailing .git if present
	url := strings.TrimSuffix(gitURL, ".git")

	// Split by / or :
	var parts []string
	if strings.Contains(url, "/") {
		parts = strings.Split(url, "/")
	} else if strings.Contains(url, ":") {
		parts = strings.Split(url, ":")
	}

	if len(parts) == 0 {
		return ""
	}

	// Return the last part
	return parts[len(parts)-1]
}
