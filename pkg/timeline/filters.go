package timeline

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// Filters narrows a client timeline. All fields are optional and combine
// with AND. Dates accept YYYY-MM-DD, matched against each event's own
// calendar date, or a full timestamp; both bounds are inclusive.
type Filters struct {
	DateFrom string
	DateTo   string

	// InteractionTypes restricts interaction events by contact type.
	// Payments, promises and renegotiations are never removed by it.
	InteractionTypes []string

	// AgentIDs keeps only events whose originating agent is listed.
	AgentIDs []string

	// Limit caps the number of events after sorting; 0 means no cap.
	Limit int
}

// SplitList parses a comma separated query parameter, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// bound is one end of a date filter. A plain date compares against the
// event's local calendar date; a timestamp compares instants.
type bound struct {
	date string
	at   time.Time
}

func (b bound) set() bool {
	return b.date != "" || !b.at.IsZero()
}

// cmp returns -1, 0 or 1 as e lies before, on or after the bound.
func (b bound) cmp(e event) int {
	if b.date != "" {
		return strings.Compare(store.DatePart(e.Timestamp), b.date)
	}
	return e.at.Compare(b.at)
}

func parseBound(v string) (bound, error) {
	if v == "" {
		return bound{}, nil
	}
	if _, err := time.Parse(dateLayout, v); err == nil {
		return bound{date: v}, nil
	}
	t, err := common.ParseTimestamp(v)
	if err != nil {
		return bound{}, fmt.Errorf("invalid date %q", v)
	}
	return bound{at: t}, nil
}

// apply filters, sorts (newest first) and truncates events.
func (f Filters) apply(events []event) ([]event, error) {
	from, err := parseBound(f.DateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseBound(f.DateTo)
	if err != nil {
		return nil, err
	}
	if f.Limit < 0 {
		return nil, fmt.Errorf("invalid limit %d", f.Limit)
	}

	out := make([]event, 0, len(events))
	for _, e := range events {
		if from.set() && from.cmp(e) < 0 {
			continue
		}
		if to.set() && to.cmp(e) > 0 {
			continue
		}
		if len(f.InteractionTypes) > 0 && e.Kind == common.EventInteraction &&
			!slices.Contains(f.InteractionTypes, e.ContactType) {
			continue
		}
		if len(f.AgentIDs) > 0 && !slices.Contains(f.AgentIDs, e.AgentID) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].at.Equal(out[j].at) {
			return out[i].at.After(out[j].at)
		}
		if ki, kj := kindOrder[out[i].Kind], kindOrder[out[j].Kind]; ki != kj {
			return ki < kj
		}
		return out[i].ID < out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
