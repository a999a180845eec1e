package model

import "time"

const (
	TypeContent = "content"
	TypeCompat  = "compat"

	SortTitle = "title"
)

// Content is the payload shared by every delivery of one notification.
type Content struct {
	ID      int64
	Title   string
	Text    string
	Type    string
	PageURL string
	Created time.Time
}

// Delivery is one subscriber's copy of a Content with its own state.
type Delivery struct {
	ID        int64
	UserID    int64
	ContentID int64
	PageURL   string
	Read      bool
	Starred   bool
	Deleted   bool
}

// View is how a delivery is listed.
type View struct {
	ID      int64     `json:"id"`
	Deleted bool      `json:"deleted"`
	Created time.Time `json:"created"`
	Title   string    `json:"title"`
	Text    string    `json:"text"`
	Read    bool      `json:"read"`
	URL     string    `json:"url"`
	Starred bool      `json:"starred"`
}

type Filters struct {
	// Starred is nil when the listing is not filtered on it.
	Starred *bool
	Type    string
}

type ListQuery struct {
	Filters Filters
	Sort    string
	Limit   int
	Offset  int
}

type IDsRequest struct {
	IDs []int64 `json:"ids"`
}

type CreateRequest struct {
	Page  string `json:"page"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ChangeSet is one fetched batch of changes. Digest identifies its content,
// so a batch already published can be recognised.
type ChangeSet struct {
	Digest  string
	Changes []Change
}

// Change is one entry of a compatibility data diff.
type Change struct {
	Event       string           `json:"event"`
	Path        string           `json:"path"`
	Browsers    []BrowserRelease `json:"browsers,omitempty"`
	Subfeatures []string         `json:"subfeatures,omitempty"`
}

type BrowserRelease struct {
	Browser string `json:"browser"`
	Version string `json:"version"`
}
