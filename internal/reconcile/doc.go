// Package reconcile turns calculated differences into an ordered write plan
// and drives a Writer through it.
//
// Deletes run first, children before parents, so no entity is removed while
// something still references it. Creates follow, parents before children, so
// a child created under a new parent can be given the parent's fresh ID.
// Updates run last. Execution stops at the first failed operation.
package reconcile
