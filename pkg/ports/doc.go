/*
Package ports defines the driven ports (interfaces) of arche.

These interfaces decouple project handling from storage and coordination
backends, so the same manager and servers run against memory, the local
filesystem or Redis.

# Key Interfaces

  - ProjectStore: persists and loads project records by project id.
  - DistributedLocker: provides distributed locking for concurrent project access.
*/
package ports
