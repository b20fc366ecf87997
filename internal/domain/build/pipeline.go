package build

import (
	"fmt"
	"os"
	"path/filepath"
)

// Pipeline produces the steps that build a project directory.
type Pipeline interface {
	Steps(dir string) ([]Step, error)
}

// NPMPipeline installs dependencies including dev tooling, then runs the
// package's build script.
type NPMPipeline struct {
	// Command is the npm executable; empty means "npm".
	Command string
}

var lockfiles = []string{"package-lock.json", "npm-shrinkwrap.json"}

// Steps returns the install and build steps for dir.
func (p NPMPipeline) Steps(dir string) ([]Step, error) {
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: nothing to build in %s", ErrNoManifest, filepath.Base(dir))
		}
		return nil, fmt.Errorf("stat package.json: %w", err)
	}

	npm := p.Command
	if npm == "" {
		npm = "npm"
	}

	// Dev dependencies carry the compiler toolchain, so they are installed
	// even when the server runs with NODE_ENV=production.
	devEnv := []string{"NODE_ENV=development"}
	install := Step{Name: npm, Args: []string{"install", "--include=dev"}, Env: devEnv}
	for _, lock := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lock)); err == nil {
			install.Args = []string{"ci", "--include=dev"}
			break
		}
	}

	return []Step{
		install,
		{Name: npm, Args: []string{"run", "build"}, Env: devEnv},
	}, nil
}

// StaticPipeline runs the same fixed steps for every project.
type StaticPipeline []Step

// Steps returns the fixed steps.
func (p StaticPipeline) Steps(string) ([]Step, error) {
	return []Step(p), nil
}

// ShellPipeline runs each command with sh -c.
func ShellPipeline(commands ...string) StaticPipeline {
	steps := make(StaticPipeline, 0, len(commands))
	for _, c := range commands {
		steps = append(steps, Step{Name: "sh", Args: []string{"-c", c}})
	}
	return steps
}
