package dev

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/remastered-go/remastered/internal/errors"
)

// CompilerConfig configures the app compiler.
type CompilerConfig struct {
	// ProjectPath is the root directory of the project.
	ProjectPath string

	// Package is the main package to build, relative to ProjectPath.
	// Default ".".
	Package string

	// BinaryPath is where to write the compiled binary.
	BinaryPath string

	Tags    []string
	LDFlags string

	// Env is appended to the environment of both go build and the app.
	Env []string

	// Stdout and Stderr receive the app's output. Default os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// StopGrace is how long a stopping app gets before it is killed.
	StopGrace time.Duration
}

// BuildResult contains the result of a build.
type BuildResult struct {
	Success  bool
	Duration time.Duration
	Output   string
	Error    error
}

// procSpec describes a process to start.
type procSpec struct {
	binary string
	args   []string
	dir    string
	env    []string
	stdout io.Writer
	stderr io.Writer
}

// Compiler builds the app binary and manages the running process.
type Compiler struct {
	config  CompilerConfig
	process *processHandle
	mu      sync.Mutex
}

// NewCompiler creates a new compiler.
func NewCompiler(config CompilerConfig) *Compiler {
	if config.Package == "" {
		config.Package = "."
	}
	if config.BinaryPath == "" {
		config.BinaryPath = filepath.Join(config.ProjectPath, StagingDir, "dev", "app")
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	if config.StopGrace == 0 {
		config.StopGrace = 5 * time.Second
	}
	return &Compiler{config: config}
}

// Build compiles the app. Failures carry the compiler output as an R120
// error.
func (c *Compiler) Build(ctx context.Context) BuildResult {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(c.config.BinaryPath), 0o755); err != nil {
		return BuildResult{Duration: time.Since(start), Error: errors.New("R120").Wrap(err)}
	}

	args := []string{"build", "-o", c.config.BinaryPath}
	if len(c.config.Tags) > 0 {
		args = append(args, "-tags", strings.Join(c.config.Tags, ","))
	}
	if c.config.LDFlags != "" {
		args = append(args, "-ldflags", c.config.LDFlags)
	}
	args = append(args, c.config.Package)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = c.config.ProjectPath
	cmd.Env = append(os.Environ(), c.config.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stderr.String()
	if output == "" {
		output = stdout.String()
	}
	res := BuildResult{Duration: time.Since(start), Output: output}
	if err != nil {
		res.Error = errors.New("R120").WithDetail(output).WithLocationFromError(stderrorOf(output)).Wrap(err)
		return res
	}
	res.Success = true
	return res
}

// Start runs the compiled binary, stopping any previous instance.
func (c *Compiler) Start(ctx context.Context, env ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stopProcess(c.process, c.config.StopGrace)
	c.process = nil

	proc, err := startProcess(ctx, procSpec{
		binary: c.config.BinaryPath,
		dir:    c.config.ProjectPath,
		env:    append(append(os.Environ(), c.config.Env...), env...),
		stdout: c.config.Stdout,
		stderr: c.config.Stderr,
	})
	if err != nil {
		return errors.New("R120").WithDetail("could not start " + c.config.BinaryPath).Wrap(err)
	}
	c.process = proc
	return nil
}

// Stop stops the running process.
func (c *Compiler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	stopProcess(c.process, c.config.StopGrace)
	c.process = nil
}

// IsRunning returns whether the process is running.
func (c *Compiler) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.process != nil
}

// BinaryPath returns the path to the compiled binary.
func (c *Compiler) BinaryPath() string {
	return c.config.BinaryPath
}

// Clean stops the app and removes the binary.
func (c *Compiler) Clean() error {
	c.Stop()
	if err := os.Remove(c.config.BinaryPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// stderrorOf returns the first "file:line:col: msg" line of compiler
// output as an error, for location extraction.
func stderrorOf(output string) error {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return stringError(line)
	}
	return stringError(output)
}

type stringError string

func (e stringError) Error() string { return string(e) }
