package compiler

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// ParsePrograms compiles CUE source and returns every program declared
// under the top-level program field, keyed by name.
func ParsePrograms(src []byte, filename string) (map[string]*prog.Program, error) {
	cuectx := cuecontext.New()
	v := cuectx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	progVal := v.LookupPath(cue.ParsePath("program"))
	if !progVal.Exists() {
		return nil, &CompileError{
			Field:   "program",
			Message: "no top-level program field",
			Pos:     v.Pos(),
		}
	}

	iter, err := progVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	programs := make(map[string]*prog.Program)
	for iter.Next() {
		name := fieldName(iter.Selector())
		p, err := CompileProgram(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", name, err)
		}
		programs[p.Name()] = p
	}
	if len(programs) == 0 {
		return nil, &CompileError{
			Field:   "program",
			Message: "at least one program is required",
			Pos:     progVal.Pos(),
		}
	}
	return programs, nil
}

// LoadPrograms reads and compiles a .cue program file.
func LoadPrograms(path string) (map[string]*prog.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	return ParsePrograms(src, path)
}

// LoadProgram loads one named program from a .cue file. With an empty
// name the file must declare exactly one program.
func LoadProgram(path, name string) (*prog.Program, error) {
	programs, err := LoadPrograms(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		if len(programs) == 1 {
			for _, p := range programs {
				return p, nil
			}
		}
		names := make([]string, 0, len(programs))
		for n := range programs {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%s declares %d programs %v: name one", path, len(programs), names)
	}

	p, ok := programs[prog.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%s: no program %q", path, name)
	}
	return p, nil
}
