package feedback

// Status is the triage state of a feedback record.
type Status string

const (
	StatusNew      Status = "new"
	StatusResolved Status = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusNew || s == StatusResolved
}

// Record is a single feedback submission.
type Record struct {
	// ID is assigned by the store on insert and never changes
	ID int64 `json:"id"`

	// Text is the trimmed submission; never empty
	Text string `json:"text"`

	// CreatedAt is the Unix timestamp of the insert
	CreatedAt int64 `json:"created_at"`

	// Status is the only mutable field
	Status Status `json:"status"`
}
