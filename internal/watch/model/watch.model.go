package model

const (
	StatusUnwatched = "unwatched"
	StatusMajor     = "major"
)

// Target is a page subscribers can watch. URL, Title and Path together
// identify it.
type Target struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Path  string `json:"path"`
	// Subscribers is only filled by the fan-out lookups.
	Subscribers []int64 `json:"-"`
}

type WatchRequest struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type StatusResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

type UnwatchRequest struct {
	URLs []string `json:"unwatch"`
}
