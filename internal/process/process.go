// Package process defines the jobs tracked by a pipeline and their lifecycle.
package process

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrTerminalStatus is returned when a transition out of Finished or
	// Cancelled is requested.
	ErrTerminalStatus = errors.New("process status is terminal")
	// ErrInvalidTransition is returned for any other disallowed transition.
	ErrInvalidTransition = errors.New("invalid process status transition")
)

// Process is a single job in the pipeline. Inputs and Outputs are ordered
// indices into the node registry.
type Process struct {
	// Name identifies the job, conventionally "<Type>/jobNNN/".
	Name    string
	Type    Type
	Status  Status
	Inputs  []int
	Outputs []int
}

// New creates a process without edges.
func New(name string, t Type, s Status) Process {
	return Process{
		Name:   name,
		Type:   t,
		Status: s,
	}
}

// RemoveInput drops every occurrence of node n from the inputs.
func (p *Process) RemoveInput(n int) {
	p.Inputs = slices.DeleteFunc(p.Inputs, func(i int) bool { return i == n })
}

// Clone returns a deep copy of the process.
func (p Process) Clone() Process {
	p.Inputs = slices.Clone(p.Inputs)
	p.Outputs = slices.Clone(p.Outputs)
	return p
}

// Type is the closed set of workflow stages. The numeric values are part of
// the persisted format and also define the display order.
type Type int

const (
	Import      Type = 1
	MotionCorr  Type = 2
	CtfFind     Type = 3
	ManualPick  Type = 4
	AutoPick    Type = 5
	Sort        Type = 6
	Extract     Type = 7
	Class2D     Type = 8
	Class3D     Type = 9
	ClassSelect Type = 10
	Refine3D    Type = 11
	Polish      Type = 12
	PostProcess Type = 13
	LocalRes    Type = 14
	Publish     Type = 15
)

var typeNames = map[Type]string{
	Import:      "Import",
	MotionCorr:  "MotionCorr",
	CtfFind:     "CtfFind",
	ManualPick:  "ManualPick",
	AutoPick:    "AutoPick",
	Sort:        "Sort",
	Extract:     "Extract",
	Class2D:     "Class2D",
	Class3D:     "Class3D",
	ClassSelect: "Select",
	Refine3D:    "Refine3D",
	Polish:      "Polish",
	PostProcess: "PostProcess",
	LocalRes:    "LocalRes",
	Publish:     "Publish",
}

// Types returns every valid process type in display order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// String returns the directory name jobs of this type are written under.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// JobName returns the conventional name of the n-th job of this type,
// e.g. "CtfFind/job003/".
func (t Type) JobName(n int) string {
	return fmt.Sprintf("%s/job%03d/", t, n)
}

// ParseType accepts either the numeric code or the name of a process type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		t := Type(code)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown process type code %d", code)
		}
		return t, nil
	}
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown process type %q", s)
}
