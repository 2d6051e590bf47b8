package model

// Status is the result of ingesting one item.
type Status int

const (
	// StatusLoaded means the table was written
	StatusLoaded Status = iota
	// StatusSkipped means nothing was written, for example a sheet without columns
	StatusSkipped
	// StatusFailed means parsing or writing failed
	StatusFailed
)

// String returns the lower case status name.
func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes what happened to one file, sheet or Delta folder.
type Outcome struct {
	// Source is the file or folder path.
	Source string
	// Kind is the source kind, see Source.Kind.
	Kind string
	// Sheet is set for workbook sheets.
	Sheet string
	// Table is the derived table name, empty when it could not be derived.
	Table string
	// Status is the result.
	Status Status
	// Rows is the number of rows written.
	Rows int
	// Message is a human readable explanation for skipped items.
	Message string
	// Err is set for failed items.
	Err error
}

// Report aggregates the outcomes of one ingest call, in processing order.
type Report struct {
	Outcomes []Outcome
}

// Add appends an outcome.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Tables returns the names of the tables that were written.
func (r *Report) Tables() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Status == StatusLoaded {
			names = append(names, o.Table)
		}
	}
	return names
}

// Failed returns the failed outcomes.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
