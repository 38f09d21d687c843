package qvm

import (
	"math"
	"math/cmplx"
)

// state is a dense statevector over n qubits. Qubit q maps to bit q of
// the amplitude index (little endian).
type state struct {
	n   int
	amp []complex128
}

// newState allocates |0...0>.
func newState(n int) *state {
	s := &state{n: n, amp: make([]complex128, 1<<n)}
	s.amp[0] = 1
	return s
}

// apply1 applies a 2x2 unitary to one qubit.
func (s *state) apply1(q int, m [2][2]complex128) {
	mask := 1 << q
	for i := range s.amp {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a0, a1 := s.amp[i], s.amp[j]
		s.amp[i] = m[0][0]*a0 + m[0][1]*a1
		s.amp[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

func (s *state) rx(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	is := complex(0, -math.Sin(theta/2))
	s.apply1(q, [2][2]complex128{{c, is}, {is, c}})
}

func (s *state) ry(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	s.apply1(q, [2][2]complex128{{c, -sn}, {sn, c}})
}

func (s *state) rz(q int, theta float64) {
	p0 := cmplx.Exp(complex(0, -theta/2))
	p1 := cmplx.Exp(complex(0, theta/2))
	s.apply1(q, [2][2]complex128{{p0, 0}, {0, p1}})
}

func (s *state) x(q int) {
	s.apply1(q, [2][2]complex128{{0, 1}, {1, 0}})
}

func (s *state) sx(q int) {
	p := complex(0.5, 0.5)
	m := complex(0.5, -0.5)
	s.apply1(q, [2][2]complex128{{p, m}, {m, p}})
}

func (s *state) h(q int) {
	r := complex(1/math.Sqrt2, 0)
	s.apply1(q, [2][2]complex128{{r, r}, {r, -r}})
}

// cz flips the sign of amplitudes where both qubits are set.
func (s *state) cz(q1, q2 int) {
	mask := 1<<q1 | 1<<q2
	for i := range s.amp {
		if i&mask == mask {
			s.amp[i] = -s.amp[i]
		}
	}
}

// prob1 returns the probability of measuring qubit q as 1.
func (s *state) prob1(q int) float64 {
	mask := 1 << q
	var p float64
	for i, a := range s.amp {
		if i&mask != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// collapse projects onto the measured outcome and renormalizes. prob is
// the pre-measurement probability of that outcome.
func (s *state) collapse(q int, outcome uint8, prob float64) {
	if prob <= 0 {
		return
	}
	mask := 1 << q
	scale := complex(1/math.Sqrt(prob), 0)
	for i := range s.amp {
		bit := uint8(0)
		if i&mask != 0 {
			bit = 1
		}
		if bit == outcome {
			s.amp[i] *= scale
		} else {
			s.amp[i] = 0
		}
	}
}
