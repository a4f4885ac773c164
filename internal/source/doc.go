package source

// Package source reads the recipient dump.
//
// It currently supports:
//   - A sqlite user database (e.g. the sending bot's own user store)
//   - A JSON array export with id/username records
//
// Extraction is deduplicated and order-stable: each distinct id appears
// once, in order of first appearance, so re-running a dump yields the
// same sequence.
