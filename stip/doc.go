// Package stip loads State Transportation Improvement Program tables
// (projects, funding, revenue), normalizes their inconsistent headers and
// cell formats into typed records, and computes the filtered aggregates a
// dashboard displays.
//
// Ingestion is lenient: an unknown header or a malformed cell resolves to
// the field's zero value and never fails the load. Only fetching or
// tabulating a whole source can fail, and then the entire load fails.
package stip
