// Package pipeline provides the graph controller that ties data artifacts
// (nodes) to the jobs (processes) that consume and produce them.
//
// # Why Pipeline Package Exists
//
// A processing project is a long chain of jobs: movies are imported, motion
// corrected, CTF estimated, picked, extracted, classified and refined. Each
// job reads files written by earlier jobs and writes new ones. The PipeLine
// records that chain so it can be browsed, persisted, pruned and checked for
// completion without re-deriving anything from job parameters.
//
// # Architecture: Two Registries, One Controller
//
//	┌─────────────────────────────────────┐
//	│              PipeLine               │
//	│  (edges, deletion, probing, markers,│
//	│   STAR persistence)                 │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌──────────────┐
//	  │ Node Store │  │ Process Store│
//	  │ (artifacts)│  │    (jobs)    │
//	  └────────────┘  └──────────────┘
//
// Nodes and processes refer to each other only by index. The controller is
// the only code that edits both sides of an edge, so the symmetry between
// process.Inputs and node.Consumers (and between process.Outputs and
// node.Producer) holds by construction:
//   - AddNewInputEdge records a node as input of a process
//   - AddNewOutputEdge records a node as output of a process
//
// Indices are never reused within a session. Deletion tombstones slots; the
// write path compacts them away and rewrites every reference.
//
// # Completion
//
// Jobs run out of process. The only signal that a Running job is done is that
// all of its output files exist. CheckProcessCompletion polls for that and
// must be called repeatedly by the owner; nothing is pushed.
//
// # Concurrency
//
// A PipeLine has a single logical owner and no internal locking.
package pipeline
