package results

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/domain/relational"
)

// buildRankedQuery renders the SELECT that materializes hits from a scope
// table, annotating each row with its search_score and 1-based search_rank
// and ordering by rank so the relational result preserves engine order.
//
// Shape:
//
//	SELECT "a", "b",
//	  CASE "pk" WHEN $2 THEN $3 ... ELSE NULL END AS search_score,
//	  CASE "pk" WHEN $2 THEN 1 ... ELSE NULL END AS search_rank
//	FROM "t" WHERE "pk" = ANY($1) ORDER BY search_rank
func buildRankedQuery(scope relational.Scope, hits []querylog.Hit) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 1+2*len(hits))

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	args = append(args, ids) // $1

	pk := quoteIdent(scope.PKColumn)

	sb.WriteString("SELECT ")
	for i, c := range scope.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(c))
	}

	// score annotation
	sb.WriteString(", CASE ")
	sb.WriteString(pk)
	for i, h := range hits {
		idPos := 2 + 2*i
		scorePos := idPos + 1
		args = append(args, h.ID, h.Score)
		sb.WriteString(" WHEN $")
		sb.WriteString(strconv.Itoa(idPos))
		sb.WriteString(" THEN $")
		sb.WriteString(strconv.Itoa(scorePos))
		sb.WriteString("::float8")
	}
	sb.WriteString(" ELSE NULL END AS search_score")

	// rank annotation, reusing the id placeholders
	sb.WriteString(", CASE ")
	sb.WriteString(pk)
	for i := range hits {
		idPos := 2 + 2*i
		sb.WriteString(" WHEN $")
		sb.WriteString(strconv.Itoa(idPos))
		sb.WriteString(" THEN ")
		sb.WriteString(strconv.Itoa(i + 1))
	}
	sb.WriteString(" ELSE NULL END AS search_rank")

	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(scope.Table))
	sb.WriteString(" WHERE ")
	sb.WriteString(pk)
	sb.WriteString(" = ANY($1) ORDER BY search_rank")

	return sb.String(), args
}
