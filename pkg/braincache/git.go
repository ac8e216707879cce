package braincache

import (
	"fmt"
	"os/exec"
	"strings"
)

// runGit runs a git subcommand in dir and returns its combined output,
// in the same style as pkg/external's thin git wrappers.
func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func gitInitBareClone(dir, remote string) error {
	cmd := exec.Command("git", "clone", "--no-checkout", "--filter=blob:none", remote, dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func gitSparseCheckoutInit(dir string) error {
	_, err := runGit(dir, "sparse-checkout", "init", "--cone")
	return err
}

func gitSparseCheckoutSet(dir string, paths []string) error {
	args := append([]string{"sparse-checkout", "set"}, sparseConePaths(paths)...)
	_, err := runGit(dir, args...)
	return err
}

// sparseConePaths converts source prefixes (files or directory
// mappings) into the directory list `sparse-checkout set --cone`
// expects: the parent directory of each required path.
func sparseConePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		p = strings.TrimSuffix(p, "/")
		dir := p
		if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
			dir = p[:idx]
		} else {
			dir = "."
		}
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	if len(out) == 0 {
		out = append(out, ".")
	}
	return out
}

func gitSetRemoteURL(dir, remote string) error {
	_, err := runGit(dir, "remote", "set-url", "origin", remote)
	return err
}

func gitFetchBranch(dir, branch string) error {
	_, err := runGit(dir, "fetch", "--depth", "1", "origin", branch)
	return err
}

func gitCheckoutBranch(dir, branch string) error {
	if _, err := runGit(dir, "checkout", branch); err != nil {
		_, err = runGit(dir, "checkout", "-B", branch, "origin/"+branch)
		return err
	}
	return nil
}

func gitResetHardToRemote(dir, branch string) error {
	_, err := runGit(dir, "reset", "--hard", "origin/"+branch)
	return err
}

func gitHeadCommit(dir string) (string, error) {
	out, err := runGit(dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func gitAddAll(dir string) error {
	_, err := runGit(dir, "add", "-A")
	return err
}

func gitCommit(dir, message string) error {
	_, err := runGit(dir, "commit", "-m", message)
	return err
}

func gitPush(dir, branch string) error {
	_, err := runGit(dir, "push", "origin", "HEAD:"+branch)
	return err
}
