package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"plusnotify/internal/notification/model"
	"plusnotify/pkg/logger"
)

const (
	EventAddedStable      = "added_stable"
	EventAddedSubfeatures = "added_subfeatures"
	EventAddedNonNull     = "added_nonnull"
)

var browserNames = map[string]string{
	"chrome":                  "Chrome",
	"chrome_android":          "Chrome Android",
	"deno":                    "Deno",
	"edge":                    "Edge",
	"firefox":                 "Firefox",
	"firefox_android":         "Firefox for Android",
	"ie":                      "Internet Explorer",
	"nodejs":                  "Node.js",
	"opera":                   "Opera",
	"opera_android":           "Opera Android",
	"safari":                  "Safari",
	"safari_ios":              "Safari on iOS",
	"samsunginternet_android": "Samsung Internet",
	"webview_android":         "WebView Android",
}

// ChangeSource yields the compatibility changes to publish.
type ChangeSource interface {
	Fetch(ctx context.Context) (model.ChangeSet, error)
}

// FileChangeSource reads a JSON array of changes from Path. An empty Path
// yields no changes. The digest is the SHA-256 of the file bytes.
type FileChangeSource struct {
	Path string
}

func (f FileChangeSource) Fetch(_ context.Context) (model.ChangeSet, error) {
	if f.Path == "" {
		return model.ChangeSet{}, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return model.ChangeSet{}, fmt.Errorf("read changes: %w", err)
	}
	var changes []model.Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return model.ChangeSet{}, fmt.Errorf("decode changes: %w", err)
	}
	sum := sha256.Sum256(data)
	return model.ChangeSet{Digest: hex.EncodeToString(sum[:]), Changes: changes}, nil
}

// Update fetches the pending changes and publishes them once per digest. A
// batch seen before is skipped; a batch that fails to publish is released so
// the next run retries it.
func (s *NotificationService) Update(ctx context.Context) (int64, error) {
	set, err := s.Changes.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(set.Changes) == 0 {
		return 0, nil
	}

	claimed, err := s.Repo.ClaimChanges(ctx, set.Digest)
	if err != nil {
		return 0, err
	}
	if !claimed {
		logger.Sugar.Infof("Changes %s already published, skipping", set.Digest)
		return 0, nil
	}

	delivered, err := s.ProcessChanges(ctx, set.Changes)
	if err != nil {
		if rerr := s.Repo.ReleaseChanges(ctx, set.Digest); rerr != nil {
			logger.Sugar.Errorf("Failed to release changes %s: %v", set.Digest, rerr)
		}
		return delivered, err
	}
	return delivered, nil
}

// ProcessChanges turns each change into notification texts and publishes
// them on the change's path. Unknown events are ignored.
func (s *NotificationService) ProcessChanges(ctx context.Context, changes []model.Change) (int64, error) {
	var delivered int64
	for _, change := range changes {
		for _, text := range changeTexts(change) {
			n, err := s.publish(ctx, change.Path, text)
			delivered += n
			if err != nil {
				return delivered, err
			}
		}
	}
	return delivered, nil
}

func changeTexts(c model.Change) []string {
	switch c.Event {
	case EventAddedStable:
		texts := make([]string, 0, len(c.Browsers))
		for _, b := range c.Browsers {
			texts = append(texts, fmt.Sprintf("Supported in %s %s", browserName(b.Browser), b.Version))
		}
		return texts
	case EventAddedSubfeatures:
		if len(c.Subfeatures) == 1 {
			return []string{"Compatibility subfeature added"}
		}
		return []string{"Compatibility subfeatures added"}
	case EventAddedNonNull:
		return []string{"More complete compatibility data added"}
	default:
		return nil
	}
}

func browserName(key string) string {
	if name, ok := browserNames[key]; ok {
		return name
	}
	return key
}

// publish delivers text to the watchers of the closest watched ancestor of
// a dotted path such as "api.fetch.init". The stripped segments are
// appended to the target title.
func (s *NotificationService) publish(ctx context.Context, path, text string) (int64, error) {
	// targets without a path must never match
	if path == "" {
		return 0, nil
	}
	parts := strings.Split(path, ".")
	var suffix []string

	for len(parts) > 0 {
		target, ok, err := s.Watchers.TargetForPath(ctx, strings.Join(parts, "."))
		if err != nil {
			return 0, err
		}
		if ok {
			title := target.Title
			if len(suffix) > 0 {
				slices.Reverse(suffix)
				title += "." + strings.Join(suffix, ".")
			}

			content, err := s.Repo.CreateContent(ctx, model.Content{
				Title:   title,
				Text:    text,
				Type:    model.TypeCompat,
				PageURL: target.URL,
			})
			if err != nil {
				return 0, err
			}
			return s.deliver(ctx, content.ID, target.URL, target.Subscribers)
		}

		suffix = append(suffix, parts[len(parts)-1])
		parts = parts[:len(parts)-1]
	}

	logger.Sugar.Debugf("No watchers for %s", path)
	return 0, nil
}
