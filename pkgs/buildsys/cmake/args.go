package cmake

import (
	"slices"
	"strings"
)

// Args is the ordered argument list handed to cmake.
type Args struct {
	list []string
}

// NewArgs returns Args starting from a copy of args.
func NewArgs(args ...string) *Args {
	return &Args{list: slices.Clone(args)}
}

// Delete removes every occurrence of arg.
func (a *Args) Delete(arg string) *Args {
	a.list = slices.DeleteFunc(a.list, func(s string) bool { return s == arg })
	return a
}

// DeleteDefine removes every -D<key>=... and -D<key>:<TYPE>=... entry.
func (a *Args) DeleteDefine(key string) *Args {
	a.list = slices.DeleteFunc(a.list, func(s string) bool {
		k, ok := defineKey(s)
		return ok && k == key
	})
	return a
}

// Define replaces any existing definition of key and appends -D<key>=<value>.
func (a *Args) Define(key, value string) *Args {
	a.DeleteDefine(key)
	a.list = append(a.list, "-D"+key+"="+value)
	return a
}

// Append adds args verbatim.
func (a *Args) Append(args ...string) *Args {
	a.list = append(a.list, args...)
	return a
}

// Lookup returns the value of the last definition of key.
func (a *Args) Lookup(key string) (string, bool) {
	for i := len(a.list) - 1; i >= 0; i-- {
		if k, ok := defineKey(a.list[i]); ok && k == key {
			_, v, _ := strings.Cut(a.list[i], "=")
			return v, true
		}
	}
	return "", false
}

// Strings returns a copy of the arguments.
func (a *Args) Strings() []string {
	return slices.Clone(a.list)
}

func defineKey(arg string) (string, bool) {
	rest, ok := strings.CutPrefix(arg, "-D")
	if !ok {
		return "", false
	}
	k, _, ok := strings.Cut(rest, "=")
	if !ok {
		return "", false
	}
	k, _, _ = strings.Cut(k, ":")
	return k, k != ""
}
