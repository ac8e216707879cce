package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestWorld is an isolated on-disk fixture: a set of throwaway brain git
// repositories and a consumer working tree, all cleaned up automatically
// when the test completes.
type TestWorld struct {
	T    *testing.T
	Root string
}

// NewTestWorld creates an empty fixture rooted in a fresh temp directory.
func NewTestWorld(t *testing.T) *TestWorld {
	t.Helper()
	return &TestWorld{T: t, Root: t.TempDir()}
}

// TestBrain is a throwaway git repository standing in for a brain.
type TestBrain struct {
	t    *testing.T
	Dir  string
	Name string
}

// NewBrain initializes a git repository at <world>/brains/<name> with an
// initial commit on main holding an empty .gitkeep, suitable as a clone source for the
// Brain Cache.
func (w *TestWorld) NewBrain(name string) *TestBrain {
	w.T.Helper()

	dir := filepath.Join(w.Root, "brains", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.T.Fatalf("create brain dir: %v", err)
	}

	b := &TestBrain{t: w.T, Dir: dir, Name: name}
	b.git("init", "-b", "main")
	b.git("config", "user.email", "test@example.com")
	b.git("config", "user.name", "Test Brain")
	// Allow the Exporter's test pushes to land on this repo's checked
	// out branch instead of being refused, the way a bare remote would
	// normally absorb a push.
	b.git("config", "receive.denyCurrentBranch", "updateInstead")

	b.WriteFile(".gitkeep", "")
	b.Commit("initial commit")

	return b
}

func (b *TestBrain) git(args ...string) string {
	b.t.Helper()
	cmd := exec.Command("git", append([]string{"-C", b.Dir}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		b.t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// WriteFile writes content to a path relative to the brain's root,
// creating parent directories as needed. It does not commit.
func (b *TestBrain) WriteFile(relPath, content string) {
	b.t.Helper()
	full := filepath.Join(b.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		b.t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		b.t.Fatalf("write %s: %v", relPath, err)
	}
}

// ReadCommitted reads the current working-tree contents of a path
// relative to the brain's root, as seen after a push with
// receive.denyCurrentBranch=updateInstead updates the worktree.
func (b *TestBrain) ReadCommitted(relPath string) string {
	b.t.Helper()
	data, err := os.ReadFile(filepath.Join(b.Dir, relPath))
	if err != nil {
		b.t.Fatalf("read %s: %v", relPath, err)
	}
	return string(data)
}

// Commit stages every change and commits it.
func (b *TestBrain) Commit(message string) string {
	b.t.Helper()
	b.git("add", "-A")
	b.git("commit", "-m", message, "--allow-empty")
	return strings.TrimSpace(b.git("rev-parse", "HEAD"))
}

// Branch creates and checks out a new branch from the current HEAD.
func (b *TestBrain) Branch(name string) {
	b.t.Helper()
	b.git("checkout", "-b", name)
}

// Remote returns a URL suitable for `git clone`: the brain's local
// filesystem path, which git treats as a valid remote.
func (b *TestBrain) Remote() string {
	return b.Dir
}

// NewConsumer creates an empty directory standing in for a consumer
// repository root.
func (w *TestWorld) NewConsumer(name string) string {
	w.T.Helper()
	dir := filepath.Join(w.Root, "consumers", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.T.Fatalf("create consumer dir: %v", err)
	}
	return dir
}

// WriteFile writes content to an absolute path, creating parent
// directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile reads an absolute path's contents as a string.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
