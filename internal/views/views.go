// Package views derives read-only groupings from the cached entity set.
// Every projection is a pure function recomputed on read; nothing here holds
// state of its own.
package views

import (
	"sort"
	"strings"

	"github.com/marcus/fb/internal/models"
)

// StatusColumns partitions feedback items into the four workflow buckets,
// preserving each item's relative load order within its bucket.
func StatusColumns(items []models.Feedback) map[models.Status][]models.Feedback {
	cols := make(map[models.Status][]models.Feedback, 4)
	for _, status := range models.AllStatuses() {
		cols[status] = nil
	}
	for _, item := range items {
		cols[item.Status] = append(cols[item.Status], item)
	}
	return cols
}

// Ordering selects the feed sort key.
type Ordering int

const (
	// OrderLoaded keeps the order items were loaded in (server order).
	OrderLoaded Ordering = iota
	OrderCreatedAsc
	OrderCreatedDesc
)

// FeedOptions filter and order the feed. All filters are conjunctive.
type FeedOptions struct {
	Search  string        // case-insensitive substring over title/description
	BoardID int64         // 0 matches all boards
	Status  models.Status // "" matches all statuses
	Order   Ordering
}

// Feed applies the filters and ordering to the loaded feedback set. The full
// result is recomputed on every call; there is no incremental re-filtering.
func Feed(items []models.Feedback, opts FeedOptions) []models.Feedback {
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	var out []models.Feedback
	for _, item := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		if opts.BoardID != 0 && item.BoardRef() != opts.BoardID {
			continue
		}
		if opts.Status != "" && item.Status != opts.Status {
			continue
		}
		out = append(out, item)
	}

	switch opts.Order {
	case OrderCreatedAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case OrderCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].CreatedAt.Before(out[i].CreatedAt)
		})
	}
	return out
}

// CommentsFor returns the comments belonging to a feedback item, in load
// order. Provisional comments keep their optimistic position.
func CommentsFor(comments []models.Comment, feedbackID int64) []models.Comment {
	var out []models.Comment
	for _, c := range comments {
		if c.FeedbackID == feedbackID {
			out = append(out, c)
		}
	}
	return out
}

// TagCount is one row of the tag frequency table.
type TagCount struct {
	Tag   string
	Count int
}

// TagFrequency counts tag occurrences across the loaded set, ranked by count
// descending. Ties break by first-seen order, not alphabetically; analytics
// consumers that need reproducible ranked lists rely on that.
func TagFrequency(items []models.Feedback) []TagCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, item := range items {
		for _, tag := range item.EffectiveTags() {
			if _, ok := counts[tag]; !ok {
				firstSeen[tag] = len(order)
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(order))
	for _, tag := range order {
		out = append(out, TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Tag] < firstSeen[out[j].Tag]
	})
	return out
}
