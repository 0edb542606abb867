package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type recorder struct {
	ran    []string
	failAt string
}

func (r *recorder) Run(ctx context.Context, step Step) error {
	r.ran = append(r.ran, step.Name)
	if step.Name == r.failAt {
		return &ExitError{Step: step, Code: 2}
	}
	return nil
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	r := &recorder{failAt: "b"}
	err := RunAll(context.Background(), r, Step{Name: "a"}, Step{Name: "b"}, Step{Name: "c"})
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Code != 2 {
		t.Fatalf("RunAll() = %v, want ExitError code 2", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(r.ran, want) {
		t.Errorf("ran %v, want %v", r.ran, want)
	}
}

func TestRunAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{}
	if err := RunAll(ctx, r, Step{Name: "a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("RunAll() = %v, want context.Canceled", err)
	}
	if len(r.ran) != 0 {
		t.Errorf("ran %v after cancel", r.ran)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		line string
		cmd  string
		args []string
	}{
		{"pip install --upgrade h5py", "pip", []string{"install", "--upgrade", "h5py"}},
		{"python -c 'import pytriqs'", "python", []string{"-c", "import pytriqs"}},
		{`sh -c "exit 1"`, "sh", []string{"-c", "exit 1"}},
		{"make", "make", []string{}},
	}
	for _, tt := range tests {
		step, err := Command("x", "/src", tt.line)
		if err != nil {
			t.Errorf("Command(%q) error = %v", tt.line, err)
			continue
		}
		if step.Cmd != tt.cmd || !reflect.DeepEqual(step.Args, tt.args) || step.Dir != "/src" {
			t.Errorf("Command(%q) = %#v", tt.line, step)
		}
	}

	if _, err := Command("x", "", "   "); err == nil {
		t.Error("Command(blank) succeeded")
	}
	if _, err := Command("x", "", "python -c 'unterminated"); err == nil {
		t.Error("Command(unterminated quote) succeeded")
	}
}

func TestStepString(t *testing.T) {
	s := Step{Cmd: "make", Args: []string{"-j8", "install"}}
	if got := s.String(); got != "make -j8 install" {
		t.Errorf("String() = %q", got)
	}
	if got := (Step{Cmd: "make"}).String(); got != "make" {
		t.Errorf("String() = %q", got)
	}
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExec(t *testing.T) {
	requireUnix(t)
	var out bytes.Buffer
	r := NewExec(log.New(&bytes.Buffer{}), &out, true)

	dir := t.TempDir()
	err := r.Run(context.Background(), Step{
		Name: "echo", Dir: dir, Cmd: "sh",
		Args: []string{"-c", `printf '%s %s' "$PWD" "$KEG_TEST"`},
		Env:  []string{"KEG_TEST=yes"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasSuffix(out.String(), " yes") {
		t.Errorf("output = %q, want env passed", out.String())
	}

	err = r.Run(context.Background(), Step{Name: "fail", Cmd: "sh", Args: []string{"-c", "exit 3"}})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run() = %v, want *ExitError", err)
	}
	if ee.Code != 3 || ee.Step.Name != "fail" {
		t.Errorf("ExitError = %+v", ee)
	}

	err = r.Run(context.Background(), Step{Name: "missing", Cmd: "keg-no-such-binary"})
	if err == nil || errors.As(err, &ee) {
		t.Errorf("Run(missing binary) = %v, want plain error", err)
	}
}

func TestExecQuiet(t *testing.T) {
	requireUnix(t)
	r := NewExec(nil, nil, false)
	if r.Stdout != nil || r.Stderr != nil {
		t.Fatal("quiet Exec has writers")
	}
	if err := r.Run(context.Background(), Step{Name: "ok", Cmd: "sh", Args: []string{"-c", "echo hi"}}); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestDryRun(t *testing.T) {
	var buf bytes.Buffer
	r := DryRun{Logger: log.New(&buf)}
	if err := r.Run(context.Background(), Step{Name: "configure", Cmd: "cmake", Args: []string{".."}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "cmake ..") {
		t.Errorf("log = %q, want command line", buf.String())
	}
}
