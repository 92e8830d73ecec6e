package domain

import "time"

// HistoryAction captures what happened in a history entry.
type HistoryAction string

const (
	ActionCreated      HistoryAction = "Created"
	ActionAccept       HistoryAction = "Accept"
	ActionOnsite       HistoryAction = "Onsite"
	ActionEscalate     HistoryAction = "Escalate"
	ActionResolve      HistoryAction = "Resolve"
	ActionClose        HistoryAction = "Close"
	ActionStatusChange HistoryAction = "StatusChange"
	ActionReassign     HistoryAction = "Reassign"
)

// Meta keys used by history events.
const (
	MetaFrom    = "from"
	MetaTo      = "to"
	MetaReason  = "reason"
	MetaSummary = "summary"
	MetaGeo     = "geo"
)

// GeoPoint is a technician check-in location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies on the globe.
func (g GeoPoint) Valid() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lng >= -180 && g.Lng <= 180
}

// HistoryEvent is an immutable audit trail entry.
type HistoryEvent struct {
	At     time.Time
	By     string
	Action HistoryAction
	Meta   map[string]any
}

// MetaString returns a string meta value or "" when absent.
func (e HistoryEvent) MetaString(key string) string {
	if e.Meta == nil {
		return ""
	}
	s, _ := e.Meta[key].(string)
	return s
}
