package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
)

// Writer writes COPY-format SQL output.
type Writer struct {
	w io.Writer
}

// NewWriter creates a new COPY output writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the BEGIN and session_replication_role setting.
func (cw *Writer) WriteHeader() error {
	_, err := fmt.Fprintln(cw.w, "BEGIN;")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cw.w, "SET session_replication_role = 'replica';")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cw.w)
	return err
}

// WriteFooter writes the session_replication_role reset and COMMIT.
func (cw *Writer) WriteFooter() error {
	_, err := fmt.Fprintln(cw.w, "SET session_replication_role = 'origin';")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cw.w, "COMMIT;")
	return err
}

// WriteData writes a COPY block loading dt into target, a quoted
// schema-qualified relation name. Empty results write nothing.
func (cw *Writer) WriteData(target string, dt *catalog.DataTable) error {
	if len(dt.Rows) == 0 {
		return nil
	}

	cols := make([]string, len(dt.Columns))
	for i, c := range dt.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	_, err := fmt.Fprintf(cw.w, "COPY %s (%s) FROM stdin;\n", target, strings.Join(cols, ", "))
	if err != nil {
		return err
	}

	for _, row := range dt.Rows {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = EscapeCopyValue(v)
		}
		_, err := fmt.Fprintln(cw.w, strings.Join(vals, "\t"))
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(cw.w, `\.`)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cw.w)
	return err
}
