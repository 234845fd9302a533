package models

// SortKey selects the ordering of a task listing.
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortPriorityHigh SortKey = "priority-high"
	SortPriorityLow  SortKey = "priority-low"
	SortDueSoon      SortKey = "due-soon"
	SortDueLate      SortKey = "due-late"
)

// ParseSortKey maps unknown or empty values to SortNewest.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortOldest, SortPriorityHigh, SortPriorityLow, SortDueSoon, SortDueLate:
		return k
	}
	return SortNewest
}

// TaskFilter narrows a task listing. Zero values mean "any".
type TaskFilter struct {
	Search    string
	Completed *bool
	Priority  Priority
	DueDate   *Date
	Sort      SortKey
}
