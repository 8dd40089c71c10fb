package engine

import (
	"database/sql"
)

// Result is the outcome of one guarded execution.
type Result struct {
	// Columns and Rows are set for SELECT statements.
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	// RowsAffected is set for INSERT, UPDATE, and DELETE.
	RowsAffected int64 `json:"rows_affected"`
	// LastInsertID is reported by drivers that support it.
	LastInsertID int64 `json:"last_insert_id,omitempty"`
	// Total is set when a page was requested with WithTotal.
	Total *int64 `json:"total,omitempty"`
	// NextPageToken is empty on the last page.
	NextPageToken string `json:"next_page_token,omitempty"`
}

func scanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
