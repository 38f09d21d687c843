// Package harness provides a conformance testing framework for sweeps.
//
// Scenarios are YAML files pairing a CUE program with a target, a sweep
// request, and assertions over the resulting series. Every scenario runs
// against the in-process statevector simulator with a fixed seed and a
// fresh in-memory store, so results are reproducible run to run and safe
// to compare against golden files.
//
// Golden snapshots capture the deterministic shape of a sweep: the swept
// values, shot counts, and ordinals. The measured visibilities are
// validated by scenario assertions with explicit bounds instead, which
// keeps golden files stable across simulator seeding changes.
package harness
