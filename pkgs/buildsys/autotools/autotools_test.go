package autotools

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/kegworks/keg/pkgs/runner"
)

type recordRunner struct {
	steps []runner.Step
}

func (r *recordRunner) Run(ctx context.Context, step runner.Step) error {
	r.steps = append(r.steps, step)
	return nil
}

func TestArgs(t *testing.T) {
	a := New(&recordRunner{}, "/src", "/src/tmp").
		Defaults(StdArgs{Prefix: "/opt/keg"}).
		Define("prefix=/usr/local").
		Define("--enable-shared=yes")
	want := []string{
		"--disable-debug",
		"--disable-dependency-tracking",
		"--prefix=/usr/local",
		"--enable-shared=yes",
	}
	if got := a.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestSteps(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	src := t.TempDir()
	r := &recordRunner{}
	a := New(r, src, filepath.Join(src, "tmp")).Jobs(4)
	ctx := context.Background()
	for _, step := range []func(context.Context) error{a.Configure, a.Build, a.Test, a.Install} {
		if err := step(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(a.Dir()); err != nil {
		t.Errorf("build dir not created: %v", err)
	}
	var got []string
	for _, s := range r.steps {
		got = append(got, strings.TrimSpace(s.Cmd+" "+strings.Join(s.Args, " ")))
	}
	want := []string{"../configure", "make -j4", "make check", "make -j4 install"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
}

func TestConfigureInSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	src := t.TempDir()
	r := &recordRunner{}
	if err := New(r, src, src).Configure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.steps[0].Cmd != "./configure" {
		t.Errorf("Cmd = %q, want ./configure", r.steps[0].Cmd)
	}
}

func TestUse(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("flags are unix only")
	}
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "include"), 0o755)
	t.Setenv("CPPFLAGS", "-Ifoo")
	t.Setenv("LDFLAGS", "")

	a := New(&recordRunner{}, "/src", "/src/tmp")
	a.Use(root)
	if got, want := a.env["CPPFLAGS"], "-Ifoo -I"+filepath.Join(root, "include"); got != want {
		t.Errorf("CPPFLAGS = %q, want %q", got, want)
	}
	if _, ok := a.env["LDFLAGS"]; ok {
		t.Error("LDFLAGS set without a lib dir")
	}
}
