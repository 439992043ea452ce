// Package trace loads pre-recorded node event streams used when
// use_trace is enabled (spec.md §4.4 step 2's trace-driven alternative
// to drawing from Weibull distributions). The original implementation
// parses its own binary/CSV trace format via an unretrieved
// lib/tracelib/trace.Parser submodule; absent that wire format, this
// module defines its own, in YAML, to match the rest of the ambient
// stack (internal/config also uses gopkg.in/yaml.v3). It is adapted
// from the teacher's config-loading pattern: os.ExpandEnv over the raw
// bytes before unmarshalling, so trace paths can embed environment
// variables the way the teacher's config paths do.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kmgreen/reliasim/internal/errs"
)

// NodeEvents holds one node's three pre-recorded event streams, each a
// sorted list of timestamps (hours, matching mission_time's unit).
type NodeEvents struct {
	PermanentFailures []float64
	TransientFailures []float64
	TransientRepairs  []float64
}

// fileFormat is the on-disk shape of each of the three trace files:
// node ID -> sorted event times.
type fileFormat map[int][]float64

// Trace is the parsed event set for one trace_id, covering every node
// referenced by any of the three files.
type Trace struct {
	id     int
	byNode map[int]*NodeEvents
}

// fileNames mirrors original_source/simedc.py's "s<id>n0.txt" naming,
// translated to this module's YAML wire format.
func fileNames(dir string, traceID int) (failure, transientFail, transientRepair string) {
	base := fmt.Sprintf("s%dn0", traceID)
	return filepath.Join(dir, base+"-failure.yaml"),
		filepath.Join(dir, base+"-transient-fail.yaml"),
		filepath.Join(dir, base+"-transient-repair.yaml")
}

// Load reads the three trace files for traceID out of dir. All three
// must exist (spec.md §6 trace validation); a missing or malformed file
// is a fatal TraceError.
func Load(dir string, traceID int) (*Trace, error) {
	failurePath, transientFailPath, transientRepairPath := fileNames(dir, traceID)

	failures, err := loadFile(failurePath)
	if err != nil {
		return nil, errs.WrapTraceError("loading permanent failure trace", err)
	}
	transientFails, err := loadFile(transientFailPath)
	if err != nil {
		return nil, errs.WrapTraceError("loading transient failure trace", err)
	}
	transientRepairs, err := loadFile(transientRepairPath)
	if err != nil {
		return nil, errs.WrapTraceError("loading transient repair trace", err)
	}

	byNode := make(map[int]*NodeEvents)
	merge := func(f fileFormat, assign func(*NodeEvents, []float64)) {
		for nodeID, times := range f {
			sorted := append([]float64(nil), times...)
			sort.Float64s(sorted)
			ne, ok := byNode[nodeID]
			if !ok {
				ne = &NodeEvents{}
				byNode[nodeID] = ne
			}
			assign(ne, sorted)
		}
	}
	merge(failures, func(ne *NodeEvents, t []float64) { ne.PermanentFailures = t })
	merge(transientFails, func(ne *NodeEvents, t []float64) { ne.TransientFailures = t })
	merge(transientRepairs, func(ne *NodeEvents, t []float64) { ne.TransientRepairs = t })

	return &Trace{id: traceID, byNode: byNode}, nil
}

func loadFile(path string) (fileFormat, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("trace file does not exist: %s", path)
		}
		return nil, err
	}
	var f fileFormat
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// EventsForNode returns nodeID's recorded events. A node absent from
// every trace file has no recorded events (all three slices empty),
// which is not an error: traces need not cover every node.
func (t *Trace) EventsForNode(nodeID int) NodeEvents {
	if ne, ok := t.byNode[nodeID]; ok {
		return *ne
	}
	return NodeEvents{}
}

// ID returns the trace_id this Trace was loaded for.
func (t *Trace) ID() int { return t.id }
