package model

// SortKey names a column the view pipeline can sort on.
type SortKey string

const (
	SortPID           SortKey = "pid"
	SortName          SortKey = "name"
	SortUser          SortKey = "user"
	SortCPU           SortKey = "cpu"
	SortMemory        SortKey = "memory"
	SortMemoryPercent SortKey = "memory_percent"
	SortStartTime     SortKey = "start_time"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Filter is one predicate in the view pipeline's AND-combined filter set.
type Filter struct {
	Field string // column name, e.g. "name", "user", "cpu"
	Op    string // "eq", "contains", "regex", "gt", "lt", "gte", "lte"
	Value string
}

// HighlightRule marks rows matching Filter with a named highlight style.
type HighlightRule struct {
	Filter Filter
	Style  string
}

// ViewProfile is a saved combination of columns, sort, filters, and
// rendering options a caller can apply to a Snapshot.
type ViewProfile struct {
	Name          string
	Description   string
	Columns       []string
	SortBy        SortKey
	SortOrder     SortOrder
	Filters       []Filter
	RefreshMs     int
	TreeMode      bool
	ShowThreads   bool
	HighlightRules []HighlightRule
}
