package querylog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
)

// logRow is the flat table representation of a query log entry.
type logRow struct {
	ID                int64
	User              string
	SearchTerms       string
	Reference         string
	Index             string
	QueryType         string
	Query             []byte
	Hits              []byte
	Aggregations      []byte
	TotalHits         int64
	TotalHitsRelation string
	ExecutedAt        time.Time
	Duration          float64 // seconds
}

func buildRow(log querylog.QueryLog) (logRow, error) {
	hits, err := json.Marshal(log.Hits)
	if err != nil {
		return logRow{}, fmt.Errorf("marshal hits: %w", err)
	}
	if log.Hits == nil {
		hits = []byte("[]")
	}

	return logRow{
		ID:                log.ID,
		User:              log.User,
		SearchTerms:       log.SearchTerms,
		Reference:         log.Reference,
		Index:             log.Index,
		QueryType:         string(log.QueryType),
		Query:             []byte(log.Query),
		Hits:              hits,
		Aggregations:      []byte(log.Aggregations),
		TotalHits:         log.TotalHits,
		TotalHitsRelation: string(log.TotalHitsRelation),
		ExecutedAt:        log.ExecutedAt,
		Duration:          log.Duration.Seconds(),
	}, nil
}

func parseRow(row logRow) (querylog.QueryLog, error) {
	var hits []querylog.Hit
	if len(row.Hits) > 0 {
		if err := json.Unmarshal(row.Hits, &hits); err != nil {
			return querylog.QueryLog{}, fmt.Errorf("unmarshal hits: %w", err)
		}
	}

	return querylog.QueryLog{
		ID:                row.ID,
		User:              row.User,
		SearchTerms:       row.SearchTerms,
		Reference:         row.Reference,
		Index:             row.Index,
		QueryType:         querylog.QueryType(row.QueryType),
		Query:             json.RawMessage(row.Query),
		Hits:              hits,
		Aggregations:      json.RawMessage(row.Aggregations),
		TotalHits:         row.TotalHits,
		TotalHitsRelation: querylog.Relation(row.TotalHitsRelation),
		ExecutedAt:        row.ExecutedAt,
		Duration:          time.Duration(row.Duration * float64(time.Second)),
	}, nil
}
