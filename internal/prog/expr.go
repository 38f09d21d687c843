package prog

import (
	"fmt"
	"math"
)

// Expr is an affine angle expression: Coeff*param + Const.
//
// A constant expression has Param == "" and Coeff == 0. A parametric
// expression references one element of a declared real register. Affine
// form is closed under the rewrites the lowering stage performs (negation,
// constant offsets, merging same-parameter rotations), so parameters
// survive decomposition symbolically and end up in the binary's patch
// table instead of forcing recompilation per value.
type Expr struct {
	Const float64 `json:"const"`
	Param string  `json:"param,omitempty"`
	Index int     `json:"index,omitempty"`
	Coeff float64 `json:"coeff,omitempty"`
}

// Const builds a constant angle expression.
func Const(v float64) Expr {
	return Expr{Const: v}
}

// Param builds an expression referencing element index of a real register.
func Param(register string, index int) Expr {
	return Expr{Param: NormalizeName(register), Index: index, Coeff: 1}
}

// IsConst reports whether the expression references no parameter.
func (e Expr) IsConst() bool {
	return e.Param == ""
}

// Plus returns the expression shifted by a constant offset.
func (e Expr) Plus(delta float64) Expr {
	e.Const += delta
	return e
}

// Neg returns the negated expression.
func (e Expr) Neg() Expr {
	e.Const = -e.Const
	e.Coeff = -e.Coeff
	return e
}

// Eval resolves the expression given the concrete value of its parameter.
// For constant expressions the argument is ignored.
func (e Expr) Eval(param float64) float64 {
	if e.IsConst() {
		return e.Const
	}
	return e.Coeff*param + e.Const
}

// MergeExprs adds two expressions when the sum is still affine in a single
// parameter: both constant, one constant, or both referencing the same
// register element. The second return value reports whether merging was
// possible.
func MergeExprs(a, b Expr) (Expr, bool) {
	switch {
	case a.IsConst():
		b.Const += a.Const
		return b, true
	case b.IsConst():
		a.Const += b.Const
		return a, true
	case a.Param == b.Param && a.Index == b.Index:
		a.Coeff += b.Coeff
		a.Const += b.Const
		return a, true
	default:
		return Expr{}, false
	}
}

// IsZero reports whether the expression is identically zero modulo 2π.
// Only constant expressions can be recognized as zero.
func (e Expr) IsZero() bool {
	if !e.IsConst() {
		return false
	}
	m := math.Mod(e.Const, 2*math.Pi)
	const eps = 1e-12
	return math.Abs(m) < eps || math.Abs(math.Abs(m)-2*math.Pi) < eps
}

func (e Expr) String() string {
	if e.IsConst() {
		return fmt.Sprintf("%g", e.Const)
	}
	if e.Const == 0 {
		return fmt.Sprintf("%g*%s[%d]", e.Coeff, e.Param, e.Index)
	}
	return fmt.Sprintf("%g*%s[%d]%+g", e.Coeff, e.Param, e.Index, e.Const)
}

// canonicalMap returns the map form used for canonical serialization.
func (e Expr) canonicalMap() map[string]any {
	m := map[string]any{"const": e.Const}
	if !e.IsConst() {
		m["param"] = e.Param
		m["index"] = e.Index
		m["coeff"] = e.Coeff
	}
	return m
}
