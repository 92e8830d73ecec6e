package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Column is one of the four workboard buckets.
type Column string

const (
	ColumnPending   Column = "pending"
	ColumnOngoing   Column = "ongoing"
	ColumnEscalated Column = "escalated"
	ColumnCompleted Column = "completed"
)

var allColumns = []Column{ColumnPending, ColumnOngoing, ColumnEscalated, ColumnCompleted}

// Columns returns the board columns in display order.
func Columns() []Column { return slices.Clone(allColumns) }

// ColumnFor maps a status to its board column. It is the only place the
// mapping is defined.
func ColumnFor(status TicketStatus) (Column, error) {
	col := Column(strings.ToLower(string(status)))
	if !slices.Contains(allColumns, col) {
		return "", fmt.Errorf("no board column for status %q", status)
	}
	return col, nil
}

// ParseColumn accepts a column key or a status name in any case.
func ParseColumn(raw string) (Column, error) {
	col := Column(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(allColumns, col) {
		return "", fmt.Errorf("unknown column %q", raw)
	}
	return col, nil
}

// Status is the inverse of ColumnFor.
func (c Column) Status() TicketStatus {
	for _, s := range allStatuses {
		if strings.EqualFold(string(s), string(c)) {
			return s
		}
	}
	return ""
}

// Board is a read-only snapshot of ticket IDs grouped by column.
type Board map[Column][]string

// Column returns the IDs in c, most recent first.
func (b Board) Column(c Column) []string {
	return b[c]
}

// Locate returns every column that lists id. A consistent board yields
// exactly one.
func (b Board) Locate(id string) []Column {
	var found []Column
	for _, c := range allColumns {
		if slices.Contains(b[c], id) {
			found = append(found, c)
		}
	}
	return found
}

// Counts returns the number of IDs per column.
func (b Board) Counts() map[Column]int {
	out := make(map[Column]int, len(allColumns))
	for _, c := range allColumns {
		out[c] = len(b[c])
	}
	return out
}
