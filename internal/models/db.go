package models

// ContentNotFound is stored when the detail page body could not be extracted.
const ContentNotFound = "Content not found"

// Notice is a recruitment posting as persisted. OriginalLink is the identity key.
type Notice struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	OriginalLink string `json:"original_link"`
	DatePosted   string `json:"date_posted"` // YYYY-MM-DD, empty when unknown
	SourceSchool string `json:"source_school"`
}

// HasDate reports whether the posting date is known.
func (n Notice) HasDate() bool {
	return n.DatePosted != ""
}

// NewNotice is a normalized record ready for the store.
type NewNotice struct {
	Title        string
	Content      string
	OriginalLink string
	DatePosted   string
	SourceSchool string
}

// Candidate is what an extractor (or an external submitter) hands over before the
// date has been normalized.
type Candidate struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	OriginalLink string `json:"original_link"`
	DateRaw      string `json:"date_raw"`
	SourceSchool string `json:"source_school"`
}
