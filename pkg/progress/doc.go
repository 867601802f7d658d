/*
Package progress implements the per-node processing event channel and the
aggregation pipeline that folds those events into a running summary.

A Channel is the single point of serialization for a node: producers call Post
from any goroutine, the fold step runs exactly once per admitted event, and
every subscriber observes the same sequence of snapshots. Late subscribers
first receive the current summary, so a consumer that attaches after work has
started still sees the aggregate so far.

# Fold steps

  - CountAll: sums every valid event (project-wide progress on the root).
  - CountResolved: only Resolve events count, and their ids are appended in
    arrival order (observation meshes).
*/
package progress
