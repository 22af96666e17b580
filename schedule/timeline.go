/*
timeline.go - Merging the schedule with extraordinary events

PURPOSE:
  The payment engine walks a single ordered list of dates. This file
  builds that list: scheduled entries and extraordinary events merged by
  date, with the collision and truncation rules resolved here so the
  engine's walk stays a straight line.

RULES:
  - events must be date-ordered and fall inside (anchor, maturity]
  - on a shared date the events apply BEFORE the scheduled distribution;
    same-date events keep caller order
  - an early settlement truncates: every scheduled entry after its date
    is void, and its node becomes the terminal one
  - nothing may follow an early settlement

SEE ALSO:
  - engine/payments.go: the walk itself
*/
package schedule

import (
	"fmt"
	"time"

	"github.com/meridian/fincore/calendar"
)

// Node is one stop of the payment walk: a date, the events that land on
// it, and the scheduled distribution if any.
type Node struct {
	Date     time.Time
	Events   []Event
	Sched    *Amortization
	Terminal bool
}

// BuildTimeline merges a validated schedule with extraordinary events
// into a date-ordered node list. The anchor entry becomes the first node;
// the terminal node is the maturity or, when an early settlement occurs,
// the settlement date.
func BuildTimeline(entries []Amortization, events []Event) ([]Node, error) {
	anchor := entries[0].Date
	maturity := entries[len(entries)-1].Date

	evs := make([]Event, len(events))
	copy(evs, events)
	for i := range evs {
		evs[i].Date = calendar.Normalize(evs[i].Date)
	}
	for i, ev := range evs {
		if i > 0 && ev.Date.Before(evs[i-1].Date) {
			return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("events out of order at %s",
				ev.Date.Format("2006-01-02"))}
		}
		if !ev.Date.After(anchor) || ev.Date.After(maturity) {
			return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("event on %s outside the operation window",
				ev.Date.Format("2006-01-02"))}
		}
		if i > 0 && evs[i-1].Kind == EarlySettlement {
			return nil, &ValidationError{Index: -1, Reason: "events after an early settlement"}
		}
	}

	nodes := make([]Node, 0, len(entries)+len(evs))
	nodes = append(nodes, Node{Date: anchor, Sched: &entries[0]})

	i, j := 1, 0
	settled := false
	for !settled && (i < len(entries) || j < len(evs)) {
		var date time.Time
		switch {
		case i >= len(entries):
			date = evs[j].Date
		case j >= len(evs):
			date = entries[i].Date
		case evs[j].Date.After(entries[i].Date):
			date = entries[i].Date
		default:
			date = evs[j].Date
		}

		node := Node{Date: date}
		for j < len(evs) && evs[j].Date.Equal(date) {
			node.Events = append(node.Events, evs[j])
			if evs[j].Kind == EarlySettlement {
				settled = true
			}
			j++
		}
		if i < len(entries) && entries[i].Date.Equal(date) {
			node.Sched = &entries[i]
			i++
		}
		nodes = append(nodes, node)
	}

	nodes[len(nodes)-1].Terminal = true
	return nodes, nil
}
