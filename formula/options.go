package formula

import (
	"fmt"
	"sort"
	"strings"
)

// Options is the immutable record of what the user selected at install time.
// The zero value selects nothing.
type Options struct {
	with    map[string]bool
	without map[string]bool
}

// NewOptions checks the selection against f and returns the record. with
// names must be declared options of f; without names must be recommended
// dependencies of f.
func NewOptions(f *Formula, with, without []string) (Options, error) {
	opts := Options{}
	for _, name := range with {
		name = strings.TrimPrefix(name, "with-")
		if _, ok := f.Option(name); !ok {
			return Options{}, fmt.Errorf("%s: unknown option %q", f.Name, name)
		}
		if opts.with == nil {
			opts.with = make(map[string]bool)
		}
		opts.with[name] = true
	}
	for _, name := range without {
		name = strings.TrimPrefix(name, "without-")
		if !isRecommended(f, name) {
			return Options{}, fmt.Errorf("%s: %q is not a recommended dependency", f.Name, name)
		}
		if opts.without == nil {
			opts.without = make(map[string]bool)
		}
		opts.without[name] = true
	}
	return opts, nil
}

func isRecommended(f *Formula, name string) bool {
	for _, d := range f.Deps.Of(Recommended) {
		if d.Name == name {
			return true
		}
	}
	return false
}

// With reports whether option name was selected.
func (o Options) With(name string) bool {
	return o.with[name]
}

// Without reports whether the recommended dependency name was opted out.
func (o Options) Without(name string) bool {
	return o.without[name]
}

// Selected returns the selected options in the flag form, sorted.
func (o Options) Selected() []string {
	out := make([]string, 0, len(o.with)+len(o.without))
	for name := range o.with {
		out = append(out, "with-"+name)
	}
	for name := range o.without {
		out = append(out, "without-"+name)
	}
	sort.Strings(out)
	return out
}

// String returns a stable key for the selection, "default" when empty.
func (o Options) String() string {
	sel := o.Selected()
	if len(sel) == 0 {
		return "default"
	}
	return strings.Join(sel, "|")
}

// Combinations returns every on/off combination of the declared options of
// f, starting from the empty selection. Options are toggled in the order they
// are declared.
func Combinations(f *Formula) []Options {
	result := []Options{{}}
	for _, o := range f.Options {
		next := make([]Options, 0, len(result)*2)
		for _, prev := range result {
			next = append(next, prev)
			with := make(map[string]bool, len(prev.with)+1)
			for k := range prev.with {
				with[k] = true
			}
			with[o.Name] = true
			next = append(next, Options{with: with})
		}
		result = next
	}
	return result
}
