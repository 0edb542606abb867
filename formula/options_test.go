package formula

import (
	"reflect"
	"testing"
)

func optionsFormula() *Formula {
	f := &Formula{
		Metadata: Metadata{Name: "demo"},
		Options: []Option{
			{Name: "test"}, {Name: "doc"}, {Name: "static"},
		},
	}
	f.Deps.Add(Dependency{Name: "mpi", Kind: Recommended})
	f.Deps.Add(Dependency{Name: "gmp"})
	return f
}

func TestNewOptions(t *testing.T) {
	f := optionsFormula()

	opts, err := NewOptions(f, []string{"test", "with-doc"}, []string{"without-mpi"})
	if err != nil {
		t.Fatalf("NewOptions() error = %v", err)
	}
	if !opts.With("test") || !opts.With("doc") || opts.With("static") {
		t.Errorf("With() wrong: %v", opts)
	}
	if !opts.Without("mpi") || opts.Without("gmp") {
		t.Errorf("Without() wrong: %v", opts)
	}
	want := []string{"with-doc", "with-test", "without-mpi"}
	if got := opts.Selected(); !reflect.DeepEqual(got, want) {
		t.Errorf("Selected() = %v, want %v", got, want)
	}
	if got := opts.String(); got != "with-doc|with-test|without-mpi" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewOptionsErrors(t *testing.T) {
	f := optionsFormula()
	if _, err := NewOptions(f, []string{"fortran"}, nil); err == nil {
		t.Error("unknown option accepted")
	}
	if _, err := NewOptions(f, nil, []string{"gmp"}); err == nil {
		t.Error("without on a non-recommended dependency accepted")
	}
}

func TestOptionsZero(t *testing.T) {
	var opts Options
	if opts.With("test") || opts.Without("mpi") {
		t.Error("zero Options selects something")
	}
	if opts.String() != "default" {
		t.Errorf("String() = %q, want default", opts.String())
	}
}

func TestCombinations(t *testing.T) {
	f := optionsFormula()
	combos := Combinations(f)
	if len(combos) != 8 {
		t.Fatalf("len(Combinations) = %d, want 8", len(combos))
	}
	if combos[0].String() != "default" {
		t.Errorf("first combination = %q, want default", combos[0])
	}
	seen := make(map[string]bool)
	for _, c := range combos {
		if seen[c.String()] {
			t.Errorf("duplicate combination %q", c)
		}
		seen[c.String()] = true
	}
	if !seen["with-doc|with-static|with-test"] {
		t.Error("missing full combination")
	}

	if got := Combinations(&Formula{}); len(got) != 1 {
		t.Errorf("Combinations(no options) = %d, want 1", len(got))
	}
}

func TestOptionFlag(t *testing.T) {
	if got := (Option{Name: "test"}).Flag(); got != "with-test" {
		t.Errorf("Flag() = %q", got)
	}
}
