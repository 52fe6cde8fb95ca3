// Package difference computes the create/update/delete operations that make
// a remote plugin and custom API graph match a local declaration.
//
// Calculate walks both hierarchies top-down:
//
//	PluginType -> Step -> Image
//	CustomAPI  -> RequestParameter, ResponseProperty
//
// At every level entities are matched by identity key (model.Key of the
// natural name within the parent scope). Local-only entities are created,
// remote-only entities are deleted, and matched pairs are classified by the
// kind's compare.Comparer: unchanged pairs are dropped, soft-only changes
// become updates, and any hard change becomes a delete of the remote entity
// plus a create of the local one.
//
// Children are only matched inside parents that survive (unchanged or
// updated). Children of a created or recreated parent are always created,
// and children of a deleted or recreated remote parent are always deleted,
// so nothing is ever re-pointed at a parent ID that is about to disappear.
//
// Calculate is pure: it never fails, never logs and never mutates its inputs.
// Output lists are sorted by (parent key, key) so results do not depend on
// input order.
package difference
