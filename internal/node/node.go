package node

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NoProducer is the Producer value of a Node that was imported into the
// pipeline rather than written by a tracked process.
const NoProducer = -1

// Node is a single data artifact in the pipeline, e.g. a STAR metadata file or
// an MRC map. Nodes refer to processes only by their index in the process
// registry.
type Node struct {
	// Name identifies the node. It is conventionally the file path of the
	// artifact relative to the project directory.
	Name string
	// Type is the kind of data the node holds.
	Type Type
	// Consumers lists the processes that take this node as input. It behaves
	// as a set: a process appears at most once.
	Consumers []int
	// Producer is the index of the process that wrote this node, or NoProducer.
	Producer int
}

// New creates a node without edges.
func New(name string, t Type) Node {
	return Node{
		Name:     name,
		Type:     t,
		Producer: NoProducer,
	}
}

// AddConsumer records process p as a consumer. It reports whether the
// process was not already present.
func (n *Node) AddConsumer(p int) bool {
	if slices.Contains(n.Consumers, p) {
		return false
	}
	n.Consumers = append(n.Consumers, p)
	return true
}

// RemoveConsumer drops process p from the consumer set.
func (n *Node) RemoveConsumer(p int) {
	n.Consumers = slices.DeleteFunc(n.Consumers, func(c int) bool { return c == p })
}

// HasProducer reports whether a tracked process wrote this node.
func (n *Node) HasProducer() bool {
	return n.Producer != NoProducer
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Consumers = slices.Clone(n.Consumers)
	return n
}

// Type is the closed set of artifact kinds a pipeline can track. The numeric
// values are part of the persisted format.
type Type int

const (
	// Movie is a set of 2D micrograph movies.
	Movie Type = 0
	// Micrograph is one or more 2D micrographs, possibly with CTF information.
	Micrograph Type = 1
	// Tomogram is one or more 3D tomograms.
	Tomogram Type = 2
	// MicrographCoordinates is a list of particle coordinates on micrographs.
	MicrographCoordinates Type = 4
	// ParticleData is a particle metadata file.
	ParticleData Type = 5
	// MovieParticleData is a metadata file with particle movie frames.
	MovieParticleData Type = 6
	// Reference is a 2D or 3D reference.
	Reference Type = 7
	// Mask is a 2D or 3D mask.
	Mask Type = 8
	// Model is a model file used for class selection.
	Model Type = 9
	// Optimiser is an optimiser file used to continue a job.
	Optimiser Type = 10
	// HalfMap is an unfiltered half-map from 3D auto-refinement.
	HalfMap Type = 11
	// FinalMap is a sharpened map from post-processing.
	FinalMap Type = 12
	// ResolutionMap is a local-resolution map.
	ResolutionMap Type = 13
)

var typeNames = map[Type]string{
	Movie:                 "movie",
	Micrograph:            "micrograph",
	Tomogram:              "tomogram",
	MicrographCoordinates: "coordinates",
	ParticleData:          "particles",
	MovieParticleData:     "movie_particles",
	Reference:             "reference",
	Mask:                  "mask",
	Model:                 "model",
	Optimiser:             "optimiser",
	HalfMap:               "halfmap",
	FinalMap:              "finalmap",
	ResolutionMap:         "resmap",
}

// Types returns every valid node type in code order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Valid reports whether t is one of the defined node types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts either the numeric code or the name of a node type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		t := Type(code)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown node type code %d", code)
		}
		return t, nil
	}
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}
