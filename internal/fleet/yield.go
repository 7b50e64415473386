// Package fleet decides, once per tick, which agents must wait so that two
// agents never converge on the same waypoint at once. Among agents heading
// for the same node the one carrying more packages yields.
package fleet

import "fleet-planner/internal/graph"

// AgentID identifies an agent in the fleet table.
type AgentID string

// Entry is one row of the fleet table: the edge an agent is traversing, its
// load and whether it has been told to wait.
type Entry struct {
	Agent   AgentID    `json:"agent"`
	Edge    graph.Edge `json:"edge"`
	Load    int        `json:"load"`
	Waiting bool       `json:"waiting"`
}

// Decision lists the agents whose waiting flag changed during a tick.
type Decision struct {
	Paused  []AgentID `json:"paused"`
	Resumed []AgentID `json:"resumed"`
}

// Empty reports whether the tick changed nothing.
func (d Decision) Empty() bool { return len(d.Paused) == 0 && len(d.Resumed) == 0 }

// Tick runs the yield rule over a snapshot of the fleet table and returns
// the decision. The input is not modified.
func Tick(entries []Entry) Decision {
	_, d := tick(entries)
	return d
}

// tick returns the updated table along with the decision. Entries are visited
// in slice order and every pause or resume is visible to later entries of the
// same tick.
func tick(entries []Entry) ([]Entry, Decision) {
	work := make([]Entry, len(entries))
	copy(work, entries)

	for i := range work {
		one := &work[i]
		dest := one.Edge.To

		if one.Waiting {
			first, waiting := -1, 0
			for j := range work {
				if work[j].Waiting && work[j].Edge.To == dest {
					if first < 0 {
						first = j
					}
					waiting++
				}
			}
			if waiting > 1 {
				work[first].Waiting = false
			} else {
				one.Waiting = false
			}
		}

		for j := range work {
			if j == i || work[j].Edge.To != dest {
				continue
			}
			two := &work[j]
			if !one.Waiting && !two.Waiting {
				if one.Load > two.Load {
					one.Waiting = true
				} else {
					two.Waiting = true
				}
			}
			break
		}
	}

	var d Decision
	for i := range work {
		switch {
		case !entries[i].Waiting && work[i].Waiting:
			d.Paused = append(d.Paused, work[i].Agent)
		case entries[i].Waiting && !work[i].Waiting:
			d.Resumed = append(d.Resumed, work[i].Agent)
		}
	}
	return work, d
}
