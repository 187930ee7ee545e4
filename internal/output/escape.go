package output

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EscapeCopyValue escapes a single value for PostgreSQL COPY text format.
// NULL is represented as \N.
func EscapeCopyValue(val any) string {
	if val == nil {
		return `\N`
	}

	switch v := val.(type) {
	case bool:
		if v {
			return "t"
		}
		return "f"
	case []byte:
		// bytea in hex form
		return `\\x` + hex.EncodeToString(v)
	case [16]byte:
		return formatUUID(v)
	case time.Time:
		return escapeString(v.Format("2006-01-02 15:04:05.999999-07"))
	case string:
		return escapeString(v)
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return escapeString(fmt.Sprintf("%v", v))
		}
		return escapeString(string(b))
	case fmt.Stringer:
		return escapeString(v.String())
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil || dv == nil {
			return `\N`
		}
		return EscapeCopyValue(dv)
	default:
		return escapeString(fmt.Sprintf("%v", v))
	}
}

func formatUUID(u [16]byte) string {
	s := hex.EncodeToString(u[:])
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
}

// escapeString applies COPY text format escaping.
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
