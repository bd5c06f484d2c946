// Package keys provides key-related helpers for custodians and tier owners.
//
// API stability:
//
// Stable:
//   - Pure, deterministic primitives for custodian-key formatting and
//     tier-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and
//     related functions). These are local-first utilities and are not part
//     of the long-term protocol contract.
package keys
