package receipt

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.3", "1.3", 0},
		{"1.3", "v1.3.0", 0},
		{"1.3", "1.10", -1},
		{"1.4.0-rc1", "1.4.0", -1},
		{"2.0", "1.9.9", 1},
		// Not semver: four components.
		{"1.2.3.4", "1.2.3.10", -1},
		{"2017-08-01", "2017-10-01", -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	prev := &Receipt{Name: "triqs", Version: "1.3"}
	tests := []struct {
		prev    *Receipt
		version string
		wantErr bool
	}{
		{nil, "1.3", false},
		{prev, "1.3", true},
		{prev, "1.2", true},
		{prev, "1.4", false},
	}
	for _, tt := range tests {
		err := Check(tt.prev, tt.version)
		if got := errors.Is(err, ErrInstalled); got != tt.wantErr {
			t.Errorf("Check(%v, %q) = %v, wantErr %v", tt.prev, tt.version, err, tt.wantErr)
		}
	}
}

func TestCheckHead(t *testing.T) {
	prev := &Receipt{Name: "triqs", Version: "1.3", Head: "0123abc"}
	tests := []struct {
		prev    *Receipt
		commit  string
		wantErr bool
	}{
		{nil, "0123abc", false},
		{&Receipt{Name: "triqs", Version: "1.3"}, "0123abc", false},
		{prev, "0123abc", true},
		{prev, "4567def", false},
	}
	for _, tt := range tests {
		err := CheckHead(tt.prev, tt.commit)
		if got := errors.Is(err, ErrInstalled); got != tt.wantErr {
			t.Errorf("CheckHead(%v, %q) = %v, wantErr %v", tt.prev, tt.commit, err, tt.wantErr)
		}
	}
}

func TestNew(t *testing.T) {
	r := New("triqs", "1.3")
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("RunID %q: %v", r.RunID, err)
	}
	if r.InstalledAt.IsZero() {
		t.Error("InstalledAt not set")
	}
	if other := New("triqs", "1.3"); other.RunID == r.RunID {
		t.Error("run ids repeat")
	}
}

func TestStore(t *testing.T) {
	s := Store{Dir: filepath.Join(t.TempDir(), "receipts")}

	if list, err := s.List(); err != nil || len(list) != 0 {
		t.Fatalf("List() on empty store = %v, %v", list, err)
	}
	if r, err := s.Lookup("triqs"); r != nil || err != nil {
		t.Fatalf("Lookup() = %v, %v", r, err)
	}
	if _, err := s.Load("triqs"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not exist", err)
	}

	want := New("triqs", "1.3")
	want.Options = []string{"with-test"}
	want.Args = []string{"-DCMAKE_BUILD_TYPE=Release", ".."}
	want.Verified = true
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(&Receipt{Name: "fftw", Version: "3.3.10"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("triqs")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.InstalledAt.Equal(want.InstalledAt) {
		t.Errorf("InstalledAt = %v, want %v", got.InstalledAt, want.InstalledAt)
	}
	got.InstalledAt = want.InstalledAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "fftw" || list[1].Name != "triqs" {
		t.Errorf("List() = %v", list)
	}

	// Overwrite.
	want.Version = "1.4"
	if err := s.Save(want); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load("triqs"); got.Version != "1.4" {
		t.Errorf("Version after overwrite = %q", got.Version)
	}
}
