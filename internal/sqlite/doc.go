// Package sqlite holds the engine-facing plumbing for Strata: the
// reference-counted connection, live-schema introspection, pragma
// access, and the prepared-statement lifecycle. The user-facing surface
// lives in pkg/storage.
package sqlite
