// Package query describes filters and clauses for Strata statements
// and serializes them to SQL text.
//
// The package's central invariant is ordering: Serialize emits
// positional placeholders in a fixed left-to-right walk of the
// description, and Parameters walks the same description in the same
// order. A statement bound from Parameters therefore lines up with the
// placeholders Serialize produced, 1-indexed, with no gaps.
package query
