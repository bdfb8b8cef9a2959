/*
Package ports defines the driven ports (interfaces) of the interview engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, graph sources, and narrative
collaborators.

# Key Interfaces

  - GraphLoader: Loads the interview definition (e.g., from YAML, Loam or Memory).
  - SessionStore: Persists and loads session records (drafts plus narrative status).
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - NarrativeGenerator: Turns the answers of a completed section into prose.
*/
package ports
