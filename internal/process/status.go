package process

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a process. The numeric values are part of
// the persisted format.
type Status int

const (
	// Running means the job was launched and its outputs are awaited.
	Running Status = 0
	// Scheduled means the job is queued; an external driver starts it.
	Scheduled Status = 1
	// Finished means every output of the job was observed on disk.
	Finished Status = 2
	// Cancelled means the job is no longer expected to complete.
	Cancelled Status = 3
)

var statusNames = map[Status]string{
	Running:   "running",
	Scheduled: "scheduled",
	Finished:  "finished",
	Cancelled: "cancelled",
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == Finished || s == Cancelled
}

// CanTransition reports whether a process in status s may move to next.
// Assigning the current status again is always allowed.
//
//	Scheduled -> Running | Finished | Cancelled
//	Running   -> Finished | Cancelled
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case Scheduled:
		return true
	case Running:
		return next == Finished || next == Cancelled
	default:
		return false
	}
}

// ParseStatus accepts either the numeric code or the name of a status.
func ParseStatus(str string) (Status, error) {
	str = strings.TrimSpace(str)
	if code, err := strconv.Atoi(str); err == nil {
		s := Status(code)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown process status code %d", code)
		}
		return s, nil
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, str) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown process status %q", str)
}
