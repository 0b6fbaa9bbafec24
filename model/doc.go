// Package model defines core types shared by the index packages.
//
// # Identity Types
//
//   - ObjectID: dense object identifier (uint32), assigned from 1 upward
//   - InvalidID: the zero ID, never assigned; marks failed batch slots
//
// # Data Types
//
//   - ObjectType: element type of stored objects (Float, Uint8, Float16)
//   - Vector: tagged copy of a stored object
//   - Edge: weighted link between two graph nodes
package model
