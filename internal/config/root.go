package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/remastered-go/remastered/internal/errors"
)

// ProjectDirEnv carries the project root to code that only sees the
// environment, such as a server entry loaded from a plugin.
const ProjectDirEnv = "REMASTERED_PROJECT_DIR"

// ErrRootAlreadySet is wrapped by the error SetProjectRoot returns when a
// different root was already recorded.
var ErrRootAlreadySet = stderrors.New("config: project root already set")

var (
	rootMu sync.Mutex
	root   string
)

// SetProjectRoot records the process-wide project root. It is write-once:
// setting the same directory again is a no-op, a different one is an error.
func SetProjectRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.New("R151").Wrap(err)
	}

	rootMu.Lock()
	defer rootMu.Unlock()

	if root != "" {
		if root == abs {
			return nil
		}
		return errors.New("R151").
			WithDetail("project root is " + root + ", refusing to change it to " + abs).
			Wrap(ErrRootAlreadySet)
	}
	root = abs
	return os.Setenv(ProjectDirEnv, abs)
}

// ProjectRoot returns the project root, falling back to the environment
// and then to the working directory.
func ProjectRoot() string {
	rootMu.Lock()
	defer rootMu.Unlock()

	if root != "" {
		return root
	}
	if dir := os.Getenv(ProjectDirEnv); dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}

func resetProjectRoot() {
	rootMu.Lock()
	root = ""
	rootMu.Unlock()
}
