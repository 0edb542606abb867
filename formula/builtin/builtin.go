// Package builtin holds the formulas shipped inside the keg binary.
package builtin

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kegworks/keg/formula"
)

//go:embed *.yaml
var files embed.FS

// Names returns the names of the built-in formulas, sorted.
func Names() []string {
	entries, _ := files.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Lookup loads the built-in formula called name.
func Lookup(name string) (*formula.Formula, error) {
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no built-in formula %q", name)
	}
	return formula.Parse(data)
}
