package domain

import (
	"sort"
	"strings"

	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// AggregateField names a ticket attribute that can be grouped on.
type AggregateField string

const (
	FieldRegional AggregateField = "regional"
	FieldStore    AggregateField = "store"
	FieldLeader   AggregateField = "leader"
	FieldReason   AggregateField = "reason"
	FieldStatus   AggregateField = "status"
)

// ParseAggregateField validates a field name. The persisted column names
// (loja, lider, motivo) are accepted as aliases.
func ParseAggregateField(s string) (AggregateField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regional":
		return FieldRegional, nil
	case "store", "loja":
		return FieldStore, nil
	case "leader", "lider":
		return FieldLeader, nil
	case "reason", "motivo":
		return FieldReason, nil
	case "status":
		return FieldStatus, nil
	}
	return "", apperrors.ErrInvalidAggregateField
}

func (f AggregateField) valueOf(t *Ticket) string {
	switch f {
	case FieldRegional:
		return t.Regional
	case FieldStore:
		return t.Store
	case FieldLeader:
		return t.Leader
	case FieldReason:
		return t.Reason
	case FieldStatus:
		return string(t.Status)
	}
	return ""
}

// AggregateBy counts tickets per distinct value of field. Tickets whose value
// is empty or blank are left out of the result.
func AggregateBy(field AggregateField, tickets []*Ticket) map[string]int {
	counts := make(map[string]int)
	for _, t := range tickets {
		v := field.valueOf(t)
		if strings.TrimSpace(v) == "" {
			continue
		}
		counts[v]++
	}
	return counts
}

// AverageResolutionTime returns, per reason, the mean minutes between opening
// and closing. Open tickets and tickets without a reason are ignored.
func AverageResolutionTime(tickets []*Ticket) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, t := range tickets {
		minutes, ok := t.ResolutionMinutes()
		if !ok || strings.TrimSpace(t.Reason) == "" {
			continue
		}
		sums[t.Reason] += minutes
		counts[t.Reason]++
	}

	averages := make(map[string]float64, len(sums))
	for reason, sum := range sums {
		averages[reason] = sum / float64(counts[reason])
	}
	return averages
}

// GroupCount is one bar of a count chart.
type GroupCount struct {
	Key   string
	Count int
}

// GroupAverage is one bar of an average chart.
type GroupAverage struct {
	Key   string
	Value float64
}

// SortedCounts orders counts by descending count, then key.
func SortedCounts(counts map[string]int) []GroupCount {
	out := make([]GroupCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, GroupCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SortedAverages orders averages by descending value, then key.
func SortedAverages(averages map[string]float64) []GroupAverage {
	out := make([]GroupAverage, 0, len(averages))
	for k, v := range averages {
		out = append(out, GroupAverage{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// DashboardFilter holds the multi-select criteria of the dashboard. An empty
// slice leaves that dimension unfiltered.
type DashboardFilter struct {
	Regionals []string
	Statuses  []string
	Reasons   []string
}

// Matches reports whether t passes every non-empty selection.
func (f DashboardFilter) Matches(t *Ticket) bool {
	return selected(f.Regionals, t.Regional) &&
		selected(f.Statuses, string(t.Status)) &&
		selected(f.Reasons, t.Reason)
}

func selected(choices []string, v string) bool {
	if len(choices) == 0 {
		return true
	}
	for _, c := range choices {
		if c == v {
			return true
		}
	}
	return false
}

// Dashboard is the aggregate projection shown to users.
// The simplified view leaves ByRegional and AvgResolution empty.
type Dashboard struct {
	Total         int
	ByStatus      []GroupCount
	ByRegional    []GroupCount
	ByReason      []GroupCount
	AvgResolution []GroupAverage
}

// BuildDashboard filters tickets and computes every projection.
func BuildDashboard(tickets []*Ticket, filter DashboardFilter) *Dashboard {
	filtered := make([]*Ticket, 0, len(tickets))
	for _, t := range tickets {
		if filter.Matches(t) {
			filtered = append(filtered, t)
		}
	}

	return &Dashboard{
		Total:         len(filtered),
		ByStatus:      SortedCounts(AggregateBy(FieldStatus, filtered)),
		ByRegional:    SortedCounts(AggregateBy(FieldRegional, filtered)),
		ByReason:      SortedCounts(AggregateBy(FieldReason, filtered)),
		AvgResolution: SortedAverages(AverageResolutionTime(filtered)),
	}
}

// Facets lists the distinct non-empty values available to each dashboard
// filter, in first-appearance order.
type Facets struct {
	Regionals []string
	Statuses  []string
	Reasons   []string
}

// BuildFacets collects the filter choices present in tickets.
func BuildFacets(tickets []*Ticket) Facets {
	regionals := newOrderedSet()
	statuses := newOrderedSet()
	reasons := newOrderedSet()
	for _, t := range tickets {
		regionals.add(t.Regional)
		statuses.add(string(t.Status))
		reasons.add(t.Reason)
	}
	return Facets{
		Regionals: regionals.values(),
		Statuses:  statuses.values(),
		Reasons:   reasons.values(),
	}
}

// orderedSet keeps distinct non-blank strings in insertion order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
