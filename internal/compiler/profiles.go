package compiler

import (
	"fmt"
	"sort"

	"github.com/bianoble/texbatch/internal/config"
)

// Profile describes how to invoke one external document compiler.
type Profile struct {
	Name     string
	Binary   string
	Args     []string // extra arguments, placed before the output-directory flag
	FinalExt string   // extension of the artifact the compiler produces
	Passes   int
}

// LaTeX engines need a second pass to settle cross-references and the table
// of contents before the PDF is stable.
var builtinProfiles = map[string]Profile{
	"pdflatex": {Name: "pdflatex", Binary: "pdflatex", FinalExt: ".pdf", Passes: 2},
	"xelatex":  {Name: "xelatex", Binary: "xelatex", FinalExt: ".pdf", Passes: 2},
	"lualatex": {Name: "lualatex", Binary: "lualatex", FinalExt: ".pdf", Passes: 2},
}

const (
	defaultFinalExt = ".pdf"
	defaultPasses   = 1
)

// Profiles resolves compiler names to profiles.
type Profiles struct {
	definitions map[string]Profile
}

// NewProfiles creates a Profiles set with the built-ins and optional custom
// definitions. A custom definition with the name of a built-in overrides only
// the fields it sets.
func NewProfiles(customDefs []config.CompilerDefinition) *Profiles {
	defs := make(map[string]Profile, len(builtinProfiles)+len(customDefs))
	for name, p := range builtinProfiles {
		defs[name] = p
	}
	for _, cd := range customDefs {
		p, ok := defs[cd.Name]
		if !ok {
			p = Profile{Name: cd.Name, FinalExt: defaultFinalExt, Passes: defaultPasses}
		}
		if cd.Binary != "" {
			p.Binary = cd.Binary
		}
		if len(cd.Args) > 0 {
			p.Args = append([]string(nil), cd.Args...)
		}
		if cd.FinalExt != "" {
			p.FinalExt = cd.FinalExt
		}
		if cd.Passes > 0 {
			p.Passes = cd.Passes
		}
		defs[cd.Name] = p
	}
	return &Profiles{definitions: defs}
}

// Resolve returns the profile for a compiler name.
func (ps *Profiles) Resolve(name string) (Profile, error) {
	p, ok := ps.definitions[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown compiler '%s', define it in compiler_definitions: [{name: %s, binary: %s}]", name, name, name)
	}
	return p, nil
}

// Known returns all known compiler names (built-in and custom), sorted.
func (ps *Profiles) Known() []string {
	names := make([]string, 0, len(ps.definitions))
	for name := range ps.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCustom reports whether name comes only from custom definitions.
func (ps *Profiles) IsCustom(name string) bool {
	_, isBuiltin := builtinProfiles[name]
	_, isDefined := ps.definitions[name]
	return isDefined && !isBuiltin
}
