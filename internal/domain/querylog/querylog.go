// Package querylog defines the persisted record of an executed search or
// count operation. A log is immutable once built; the only transition it
// undergoes is being saved.
package querylog

import (
	"encoding/json"
	"time"
)

// QueryType distinguishes search from count operations.
type QueryType string

// Supported query types.
const (
	TypeSearch QueryType = "SEARCH"
	TypeCount  QueryType = "COUNT"
)

// Relation qualifies the total-hit count.
type Relation string

// Total-hit relations, as reported in the response's total envelope.
const (
	RelationExact   Relation = "eq"  // exact count
	RelationAtLeast Relation = "gte" // lower-bound estimate
)

// Hit is the normalized meta info of one matched document.
type Hit struct {
	ID        string              `json:"id"`
	Index     string              `json:"index"`
	Score     *float64            `json:"score"` // nil when the query used a non-relevance sort
	Highlight map[string][]string `json:"highlight,omitempty"`
	Fields    map[string]any      `json:"fields,omitempty"`
}

// QueryLog captures one executed operation: the wire query actually sent
// (with paging defaults resolved), the normalized hits and the timing.
type QueryLog struct {
	ID                int64
	User              string
	SearchTerms       string
	Reference         string
	Index             string
	QueryType         QueryType
	Query             json.RawMessage // outbound wire query, a faithful replay artifact
	Hits              []Hit
	Aggregations      json.RawMessage
	TotalHits         int64
	TotalHitsRelation Relation
	ExecutedAt        time.Time
	Duration          time.Duration
}

// ObjectIDs returns the distinct entity ids extracted from the hits,
// preserving first-seen order.
func (q *QueryLog) ObjectIDs() []string {
	seen := make(map[string]struct{}, len(q.Hits))
	ids := make([]string, 0, len(q.Hits))
	for _, h := range q.Hits {
		if h.ID == "" {
			continue
		}
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}
		ids = append(ids, h.ID)
	}
	return ids
}

// MaxScore returns the highest relevance score on the page, 0 when no hit
// carries a score.
func (q *QueryLog) MaxScore() float64 {
	var maxScore float64
	for _, h := range q.Hits {
		if h.Score != nil && *h.Score > maxScore {
			maxScore = *h.Score
		}
	}
	return maxScore
}

// MinScore returns the lowest relevance score on the page, 0 when no hit
// carries a score.
func (q *QueryLog) MinScore() float64 {
	var minScore float64
	first := true
	for _, h := range q.Hits {
		if h.Score == nil {
			continue
		}
		if first || *h.Score < minScore {
			minScore = *h.Score
			first = false
		}
	}
	return minScore
}

// PageSize returns the number of hits on this page.
func (q *QueryLog) PageSize() int { return len(q.Hits) }

// PageSlice returns the 0-based from/size window stored in the wire query.
// The second return is false when the log has no query payload.
func (q *QueryLog) PageSlice() (from, size int, ok bool) {
	if len(q.Query) == 0 {
		return 0, 0, false
	}
	var window struct {
		From *int `json:"from"`
		Size *int `json:"size"`
	}
	if err := json.Unmarshal(q.Query, &window); err != nil {
		return 0, 0, false
	}
	size = 10
	if window.From != nil {
		from = *window.From
	}
	if window.Size != nil {
		size = *window.Size
	}
	return from, size, true
}

// PageFrom returns the 1-based index of the first hit on the page, 0 when the
// page is empty.
func (q *QueryLog) PageFrom() int {
	if q.PageSize() == 0 {
		return 0
	}
	from, _, _ := q.PageSlice()
	return from + 1
}

// PageTo returns the 1-based index of the last hit on the page, 0 when the
// page is empty.
func (q *QueryLog) PageTo() int {
	if q.PageSize() == 0 {
		return 0
	}
	return q.PageFrom() + q.PageSize() - 1
}
