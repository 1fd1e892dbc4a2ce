// Package aatree implements an AA tree whose nodes live in an index file and
// whose values live in a separate contents file.
//
// Nodes are addressed by byte offset into the index file. Rotations never
// move a subtree root to a different address, so the root of the whole tree
// is always found at offset 0 and parents never need to be rewritten after a
// child subtree rebalances.
package aatree
