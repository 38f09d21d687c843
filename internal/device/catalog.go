package device

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

//go:embed targets.cue
var defaultCatalogSrc []byte

// Catalog is a set of resolvable targets, keyed by identifier.
type Catalog struct {
	byID  map[string]Target
	order []string
}

// Target looks up a catalog entry by identifier.
func (c *Catalog) Target(id string) (Target, bool) {
	t, ok := c.byID[prog.NormalizeName(id)]
	return t, ok
}

// Targets returns all entries in declaration order.
func (c *Catalog) Targets() []Target {
	out := make([]Target, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// DefaultCatalog parses the embedded catalog: the simulated targets every
// build ships with.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogSrc, "targets.cue")
}

// ParseCatalog compiles CUE source into a catalog. The expected shape is
//
//	target: "<id>": {
//		description: "..."
//		driver:      "qvm"
//		status:      "online" | "offline" | "reserved"
//		qubits: [0, 1]
//		native: ["rz", "sx", "x", "cz"]
//	}
func ParseCatalog(src []byte, filename string) (*Catalog, error) {
	cuectx := cuecontext.New()
	v := cuectx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileCatalog(v)
}

// LoadCatalogDir parses every .cue file in a directory into one catalog.
// Duplicate target identifiers across files are an error.
func LoadCatalogDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	merged := &Catalog{byID: make(map[string]Target)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cue") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		c, err := ParseCatalog(src, path)
		if err != nil {
			return nil, err
		}
		for _, id := range c.order {
			if _, dup := merged.byID[id]; dup {
				return nil, &CatalogError{Field: id, Message: "duplicate target identifier"}
			}
			merged.byID[id] = c.byID[id]
			merged.order = append(merged.order, id)
		}
	}
	if len(merged.order) == 0 {
		return nil, &CatalogError{Field: dir, Message: "no targets found"}
	}
	return merged, nil
}

func compileCatalog(v cue.Value) (*Catalog, error) {
	targetsVal := v.LookupPath(cue.ParsePath("target"))
	if !targetsVal.Exists() {
		return nil, &CatalogError{Field: "target", Message: "target block is required", Pos: v.Pos()}
	}

	iter, err := targetsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{byID: make(map[string]Target)}
	for iter.Next() {
		id := fieldName(iter.Selector())
		t, err := compileTarget(id, iter.Value())
		if err != nil {
			return nil, err
		}
		c.byID[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	if len(c.order) == 0 {
		return nil, &CatalogError{Field: "target", Message: "at least one target is required", Pos: v.Pos()}
	}
	return c, nil
}

func compileTarget(id string, v cue.Value) (Target, error) {
	t := Target{ID: prog.NormalizeName(id), Native: native.GateSet{}}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return t, formatCUEError(err)
		}
		t.Description = desc
	}

	driverVal := v.LookupPath(cue.ParsePath("driver"))
	if !driverVal.Exists() {
		return t, &CatalogError{Field: id + ".driver", Message: "driver is required", Pos: v.Pos()}
	}
	driver, err := driverVal.String()
	if err != nil {
		return t, formatCUEError(err)
	}
	t.Driver = driver

	statusVal := v.LookupPath(cue.ParsePath("status"))
	if !statusVal.Exists() {
		return t, &CatalogError{Field: id + ".status", Message: "status is required", Pos: v.Pos()}
	}
	status, err := statusVal.String()
	if err != nil {
		return t, formatCUEError(err)
	}
	if !ValidStatuses[Status(status)] {
		return t, &CatalogError{Field: id + ".status",
			Message: fmt.Sprintf("unknown status %q", status), Pos: statusVal.Pos()}
	}
	t.Status = Status(status)

	qubitsVal := v.LookupPath(cue.ParsePath("qubits"))
	if !qubitsVal.Exists() {
		return t, &CatalogError{Field: id + ".qubits", Message: "qubits list is required", Pos: v.Pos()}
	}
	qIter, err := qubitsVal.List()
	if err != nil {
		return t, formatCUEError(err)
	}
	for qIter.Next() {
		q, err := qIter.Value().Int64()
		if err != nil {
			return t, formatCUEError(err)
		}
		t.Qubits = append(t.Qubits, int(q))
	}
	if len(t.Qubits) == 0 {
		return t, &CatalogError{Field: id + ".qubits",
			Message: "at least one qubit is required", Pos: qubitsVal.Pos()}
	}
	sort.Ints(t.Qubits)

	nativeVal := v.LookupPath(cue.ParsePath("native"))
	if !nativeVal.Exists() {
		return t, &CatalogError{Field: id + ".native", Message: "native gate list is required", Pos: v.Pos()}
	}
	gIter, err := nativeVal.List()
	if err != nil {
		return t, formatCUEError(err)
	}
	for gIter.Next() {
		g, err := gIter.Value().String()
		if err != nil {
			return t, formatCUEError(err)
		}
		name := prog.GateName(g)
		if !prog.KnownGate(name) {
			return t, &CatalogError{Field: id + ".native",
				Message: fmt.Sprintf("unknown gate %q", g), Pos: gIter.Value().Pos()}
		}
		t.Native[name] = true
	}
	if len(t.Native) == 0 {
		return t, &CatalogError{Field: id + ".native",
			Message: "at least one native gate is required", Pos: nativeVal.Pos()}
	}

	return t, nil
}

// fieldName unwraps a CUE selector label, handling quoted string labels
// like target: "sim-2q".
func fieldName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// CatalogError represents a catalog compilation error with source
// position.
type CatalogError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CatalogError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
