package database

// Article statuses used by the triage workflow.
const (
	StatusPending  = "pending"
	StatusActioned = "actioned_note_added"
)

// TimeFormat is the layout for timestamps stored in SQLite.
const TimeFormat = "2006-01-02 15:04:05"

// Competitor is a tracked source: a name, its website, and optionally a feed.
type Competitor struct {
	ID          int64
	Name        string
	Website     string
	FeedURL     string
	Description string
	CreatedAt   string
}

// Article is one fetched item from a competitor's feed. Summary holds the
// serialized summary record and may be empty or unparsable; read paths must
// tolerate that.
type Article struct {
	ID         int64
	Competitor string // competitor name, not an owning foreign key
	URL        string
	Title      string
	Content    string
	Summary    string
	Status     string
	FetchedAt  string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Competitors     int
	TotalArticles   int
	PendingArticles int
}
