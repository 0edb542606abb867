package cmake

import (
	"reflect"
	"testing"
)

func TestArgsDefine(t *testing.T) {
	a := NewArgs("-DA=1", "-DB:STRING=2", "-Wno-dev", "-DA=3")
	a.Define("A", "4")
	want := []string{"-DB:STRING=2", "-Wno-dev", "-DA=4"}
	if got := a.Strings(); !reflect.DeepEqual(got, want) {
		t.Errorf("Strings() = %v, want %v", got, want)
	}

	a.Define("B", "5")
	if v, ok := a.Lookup("B"); !ok || v != "5" {
		t.Errorf("Lookup(B) = %q, %v", v, ok)
	}
	if _, ok := a.Lookup("C"); ok {
		t.Error("Lookup(C) found a value")
	}
}

func TestArgsDelete(t *testing.T) {
	a := NewArgs("-DCMAKE_BUILD_TYPE=None", "-Wno-dev", "-DCMAKE_BUILD_TYPE=None")
	a.Delete("-DCMAKE_BUILD_TYPE=None")
	if got := a.Strings(); !reflect.DeepEqual(got, []string{"-Wno-dev"}) {
		t.Errorf("Strings() = %v", got)
	}
}

func TestArgsCopies(t *testing.T) {
	src := []string{"-DA=1"}
	a := NewArgs(src...)
	a.Define("A", "2")
	if src[0] != "-DA=1" {
		t.Error("NewArgs aliased its input")
	}
	out := a.Strings()
	out[0] = "x"
	if a.Strings()[0] != "-DA=2" {
		t.Error("Strings() aliased internal state")
	}
}

func TestDefineKey(t *testing.T) {
	tests := []struct {
		arg string
		key string
		ok  bool
	}{
		{"-DFOO=1", "FOO", true},
		{"-DFOO:BOOL=ON", "FOO", true},
		{"-DFOO", "", false},
		{"-Wno-dev", "", false},
		{"..", "", false},
		{"-D=1", "", false},
	}
	for _, tt := range tests {
		k, ok := defineKey(tt.arg)
		if k != tt.key || ok != tt.ok {
			t.Errorf("defineKey(%q) = %q, %v; want %q, %v", tt.arg, k, ok, tt.key, tt.ok)
		}
	}
}
