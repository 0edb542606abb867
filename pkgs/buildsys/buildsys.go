package buildsys

import (
	"context"
	"sort"
)

// BuildSystem captures shared capabilities of build helpers (CMake, Autotools, etc).
// It keeps the common lifecycle and dependency/env setup; implementations add their own extras.
type BuildSystem interface {
	// Use makes an installed prefix visible to the build.
	Use(root string)

	// Lifecycle. Each call is one external process; a non-nil error means
	// it exited non-zero or could not start.
	Configure(ctx context.Context) error
	Build(ctx context.Context) error
	Test(ctx context.Context) error
	Install(ctx context.Context) error

	// Dir is the directory every step runs in.
	Dir() string
}

// DefaultArgs is supplied by the embedding environment and returns the
// arguments every configure call starts from.
type DefaultArgs interface {
	DefaultBuildArgs() []string
}

// Env is the extra environment handed to build processes.
type Env map[string]string

// Prepend adds value in front of the PATH-style variable key. The current
// process value is used as the base the first time key is touched.
func (e Env) Prepend(key, value, sep string, getenv func(string) string) {
	cur, ok := e[key]
	if !ok {
		cur = getenv(key)
	}
	if cur != "" {
		value += sep + cur
	}
	e[key] = value
}

// AppendFlag appends a space-separated flag to key.
func (e Env) AppendFlag(key, flag string, getenv func(string) string) {
	cur, ok := e[key]
	if !ok {
		cur = getenv(key)
	}
	if cur != "" {
		flag = cur + " " + flag
	}
	e[key] = flag
}

// List returns sorted KEY=VALUE pairs for exec.
func (e Env) List() []string {
	if len(e) == 0 {
		return nil
	}
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
