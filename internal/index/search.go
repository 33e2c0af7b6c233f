package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/blz-dev/blz/internal/query"
	"github.com/blz-dev/blz/internal/sqlutil"
)

// Hit is one scored match from a shard, ordered most-relevant first by
// Search. Score is BM25-derived: higher is better, the inverse of
// SQLite's native bm25(), which returns lower-is-better values.
type Hit struct {
	BlockID      string
	HeadingPath  string
	HeadingTitle string
	Content      string
	Level        int
	LineStart    int
	LineEnd      int
	Score        float64
}

// Search executes plan against the shard and returns up to limit hits
// ordered by score desc, then the tie-breakers: lower
// line_start first, then shallower heading_path depth, then (left to the
// caller, since alias isn't known to a single shard) alias ascending.
func (s *Shard) Search(ast *query.Node, level query.LevelFilter, headingsOnly bool, limit int) ([]Hit, error) {
	var (
		rows *sql.Rows
		err  error
	)

	levelClause, levelArgs := levelSQL(level)

	if ast.Kind == query.NodeMatchAll {
		q := fmt.Sprintf(`
			SELECT block_id, heading_path, heading_title, content, level, line_start, line_end, 0.0
			FROM blocks
			WHERE 1=1 %s
			ORDER BY line_start ASC
			LIMIT ?
		`, levelClause)
		args := append(append([]any{}, levelArgs...), limit)
		rows, err = s.db.Query(q, args...)
	} else {
		matchExpr, buildErr := buildMatchQuery(ast, headingsOnly)
		if buildErr != nil {
			return nil, buildErr
		}
		q := fmt.Sprintf(`
			SELECT block_id, heading_path, heading_title, content, level, line_start, line_end,
			       -bm25(blocks, %g, %g, %g) AS score
			FROM blocks
			WHERE blocks MATCH ? %s
			ORDER BY score DESC, line_start ASC
			LIMIT ?
		`, headingPathBoost, headingTitleBoost, contentBoost, levelClause)
		args := append(append([]any{matchExpr}, levelArgs...), limit)
		rows, err = s.db.Query(q, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	hits, err := sqlutil.ScanRows(rows, scanHit)
	if err != nil {
		return nil, fmt.Errorf("index: scan hit: %w", err)
	}
	return hits, nil
}

func scanHit(rows *sql.Rows) (Hit, error) {
	var h Hit
	err := rows.Scan(&h.BlockID, &h.HeadingPath, &h.HeadingTitle, &h.Content, &h.Level, &h.LineStart, &h.LineEnd, &h.Score)
	return h, err
}

// levelSQL renders the heading-level filter into a SQL fragment and its
// bound arguments. level is an UNINDEXED FTS5 column, so ordinary SQL
// comparisons apply directly.
func levelSQL(f query.LevelFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Set != nil {
		placeholders := make([]string, 0, len(f.Set))
		for lvl := range f.Set {
			placeholders = append(placeholders, "?")
			args = append(args, lvl)
		}
		clauses = append(clauses, "level IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.HasLo {
		clauses = append(clauses, "level >= ?")
		args = append(args, f.Lo)
	}
	if f.HasHi {
		clauses = append(clauses, "level <= ?")
		args = append(args, f.Hi)
	}
	if f.Lt {
		clauses = append(clauses, "level < ?")
		args = append(args, f.Bound)
	}
	if f.Lte {
		clauses = append(clauses, "level <= ?")
		args = append(args, f.Bound)
	}
	if f.Gt {
		clauses = append(clauses, "level > ?")
		args = append(args, f.Bound)
	}
	if f.Gte {
		clauses = append(clauses, "level >= ?")
		args = append(args, f.Bound)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "AND " + strings.Join(clauses, " AND "), args
}
