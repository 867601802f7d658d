/*
Package domain contains the node variant model of an arche project tree.

A project is a rooted tree of typed nodes. Each node has a fixed Kind chosen at
construction, and the kind alone decides which capabilities the node exposes:

  - Container: ordered children (roots, folders, observation meshes).
  - Parameterized: a kind-specific parameter record with documented defaults.
  - FileReference: a pointer to external content by file id.
  - Aggregating: a progress channel folding solve/resolve events.

Nodes are immutable after construction except for their progress channel.
Constructors validate required fields and fail fast with a ConstructionError;
omitted optional parameters are replaced by the kind's default table.

This package is kept free of I/O; persistence lives in package record and the
storage adapters.
*/
package domain
