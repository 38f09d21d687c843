package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/qvm"
)

// loadCatalog returns the embedded catalog, or a site catalog when
// --targets-dir was given.
func loadCatalog(opts *RootOptions) (*device.Catalog, error) {
	if opts.TargetsDir == "" {
		return device.DefaultCatalog()
	}
	c, err := device.LoadCatalogDir(opts.TargetsDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load target catalog", err)
	}
	return c, nil
}

// resolveTarget builds a resolver with the simulator driver registered
// and resolves the named target.
func resolveTarget(opts *RootOptions, targetID string) (*device.Handle, error) {
	catalog, err := loadCatalog(opts)
	if err != nil {
		return nil, err
	}
	resolver := device.NewResolver(catalog)
	resolver.RegisterBackend(qvm.Driver, qvm.New())

	h, err := resolver.Resolve(targetID)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("cannot resolve target %q", targetID), err)
	}
	return h, nil
}

// parseBinding parses a --set flag of the form register=value or
// register[index]=value.
func parseBinding(s string) (register string, index int, value float64, err error) {
	eq := strings.IndexByte(s, '=')
	if eq < 1 {
		return "", 0, 0, fmt.Errorf("binding %q: want register=value", s)
	}
	register, valStr := s[:eq], s[eq+1:]

	if open := strings.IndexByte(register, '['); open >= 0 {
		if !strings.HasSuffix(register, "]") {
			return "", 0, 0, fmt.Errorf("binding %q: unclosed index", s)
		}
		idxStr := register[open+1 : len(register)-1]
		index, err = strconv.Atoi(idxStr)
		if err != nil {
			return "", 0, 0, fmt.Errorf("binding %q: bad index %q", s, idxStr)
		}
		register = register[:open]
	}

	value, err = strconv.ParseFloat(valStr, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("binding %q: bad value %q", s, valStr)
	}
	return register, index, value, nil
}
