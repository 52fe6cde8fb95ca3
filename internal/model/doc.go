// Package model provides the entity types shared by every XrmSync package.
//
// This package contains value types only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - Entities are plain value structs; the core never mutates its inputs
//   - ID is assigned by the remote system only (uuid.Nil while local-only)
//   - Identity is the natural key (Name/UniqueName) normalized by Key
//   - Child entities carry their parent's key and ID
//   - All JSON/YAML tags use snake_case
package model
