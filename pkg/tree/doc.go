// Package tree assembles domain nodes into an indexed, rooted project tree
// and routes processing events to the nodes that aggregate them.
//
// A Tree is immutable after New: nodes are looked up by id, walked in
// pre-order, filtered by kind or type tag, and their progress channels are
// reached through Post, Subscribe and Summary.
package tree
