// Package validation checks a local declaration against structural rules
// before anything is written to the remote system.
//
// Rules are small independent values. A Rule[T] inspects one entity; a
// ChildRule[T, P] also sees the parent and the sibling collection, which is
// what duplicate detection needs. The set of rules per entity kind is fixed
// when the Registry is built.
//
// The Validator walks every plugin type, step and image, then every custom
// API, request parameter and response property, runs every applicable rule,
// and returns all violations in walk order. It never stops at the first one.
package validation
