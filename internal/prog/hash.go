package prog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. Version suffix enables
// future algorithm migration without colliding with old hashes.
const (
	DomainProgram = "qsweep/program/v1"
	DomainBinary  = "qsweep/binary/v1"
	DomainBinding = "qsweep/binding/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of a program. Two programs
// with identical declarations, body and shot count hash identically, which
// is what makes compilation a pure function of the program.
func (p *Program) Hash() (string, error) {
	canonical, err := MarshalCanonical(p.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("program hash: %w", err)
	}
	return HashWithDomain(DomainProgram, canonical), nil
}

// Hash computes the content-addressed identity of a memory map. Used to
// derive reproducible per-run sampling seeds.
func (m MemoryMap) Hash() (string, error) {
	canonical, err := MarshalCanonical(m.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("binding hash: %w", err)
	}
	return HashWithDomain(DomainBinding, canonical), nil
}

// MustHash is like Hash but panics on error. Use only in tests or when
// inputs are known to be valid.
func (p *Program) MustHash() string {
	h, err := p.Hash()
	if err != nil {
		panic(err)
	}
	return h
}
