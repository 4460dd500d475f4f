package csvenc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Encode renders rows as CSV text. When header is nil the header is the sorted
// union of every key appearing in any row, so column order is stable regardless
// of row order and of which rows carry which optional fields. Rows are joined
// with "\n" and there is no trailing newline.
func Encode(header []string, rows []map[string]any) string {
	if header == nil {
		header = unionHeader(rows)
	}

	lines := make([]string, 0, len(rows)+1)

	headerCells := make([]string, len(header))
	for i, h := range header {
		headerCells[i] = escapeCell(h)
	}
	lines = append(lines, strings.Join(headerCells, ","))

	for _, row := range rows {
		cells := make([]string, len(header))
		for i, key := range header {
			cells[i] = escapeCell(formatValue(row[key]))
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return strings.Join(lines, "\n")
}

// unionHeader collects every key seen in any row, sorted.
func unionHeader(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	header := make([]string, 0, len(seen))
	for key := range seen {
		header = append(header, key)
	}
	sort.Strings(header)
	return header
}

// formatValue applies the canonical cell rule, in order: nil renders empty,
// timestamps render ISO-8601, decimals render their canonical decimal string,
// anything with a custom string form uses it, remaining composites fall back to
// JSON, and plain scalars use their natural string form.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}
		return val.String()
	case fmt.Stringer:
		return val.String()
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any, []any:
		return jsonFallback(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func jsonFallback(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// escapeCell quote-wraps a cell and doubles internal quotes whenever the value
// contains a comma, a quote, or a newline; otherwise the value is emitted bare.
func escapeCell(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
