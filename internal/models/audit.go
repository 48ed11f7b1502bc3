package models

import (
	"fmt"
	"sort"
)

// SourceAudit counts what the cleaner did to one source table.
type SourceAudit struct {
	Source  string         `json:"source"`
	Input   int            `json:"input"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped"`
	// Unresolved rows are kept but cannot take part in spatial joins.
	Unresolved int `json:"unresolved,omitempty"`
}

func NewSourceAudit(source string, input int) *SourceAudit {
	return &SourceAudit{
		Source:  source,
		Input:   input,
		Dropped: make(map[string]int),
	}
}

func (a *SourceAudit) Drop(reason string) {
	a.Dropped[reason]++
}

func (a *SourceAudit) TotalDropped() int {
	total := 0
	for _, n := range a.Dropped {
		total += n
	}
	return total
}

// Balanced reports whether every input row is either kept or counted as dropped.
func (a *SourceAudit) Balanced() bool {
	return a.Kept+a.TotalDropped() == a.Input
}

// DropSummary is the audit output of one cleaning run.
type DropSummary struct {
	Sources []*SourceAudit `json:"sources"`
}

func (s *DropSummary) Add(audit *SourceAudit) {
	s.Sources = append(s.Sources, audit)
}

func (s *DropSummary) Source(name string) *SourceAudit {
	for _, a := range s.Sources {
		if a.Source == name {
			return a
		}
	}
	return nil
}

// Counts flattens the summary into "source.reason" -> rows.
func (s *DropSummary) Counts() map[string]int {
	counts := make(map[string]int)
	for _, a := range s.Sources {
		counts[a.Source+".input"] = a.Input
		counts[a.Source+".kept"] = a.Kept
		if a.Unresolved > 0 {
			counts[a.Source+".unresolved"] = a.Unresolved
		}
		for reason, n := range a.Dropped {
			counts[a.Source+"."+reason] = n
		}
	}
	return counts
}

// AuditRow is one line of the audit table as written by the output sinks.
type AuditRow struct {
	Key   string `json:"key" csv:"key" parquet:"name=key,type=BYTE_ARRAY,convertedtype=UTF8"`
	Count int64  `json:"count" csv:"count" parquet:"name=count,type=INT64"`
}

// Rows returns the flattened counts sorted by key.
func (s *DropSummary) Rows() []AuditRow {
	counts := s.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]AuditRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, AuditRow{Key: k, Count: int64(counts[k])})
	}
	return rows
}

func (a *SourceAudit) String() string {
	return fmt.Sprintf("%s: input=%d kept=%d dropped=%d", a.Source, a.Input, a.Kept, a.TotalDropped())
}
