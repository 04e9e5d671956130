// Package node defines the data artifacts tracked by a pipeline.
//
// A Node is a named, typed file that is either imported into the pipeline or
// written by a process. Nodes never hold pointers to processes; the edges are
// kept as indices into the process registry owned by the pipeline, so the
// graph can be copied and persisted without ownership cycles.
package node
