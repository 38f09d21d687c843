// Package prog defines the logical program representation: typed classical
// registers, gate and measurement instructions, and affine angle expressions
// that may reference declared registers as late-bound parameters.
//
// Programs are constructed through a Builder that enforces
// declare-before-use, then frozen into an immutable Program. Canonical JSON
// serialization and content hashing give programs, binaries and bindings
// stable identities across processes.
package prog
