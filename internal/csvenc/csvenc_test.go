package csvenc

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEncode_HeaderUnion(t *testing.T) {
	rows := []map[string]any{
		{"a": 1, "b": 2},
		{"c": 3},
	}

	got := Encode(nil, rows)
	want := "a,b,c\n1,2,\n,,3"
	if got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}
}

func TestEncode_ExplicitHeader(t *testing.T) {
	rows := []map[string]any{
		{"name": "Sugar", "qty": 4, "ignored": "x"},
	}

	got := Encode([]string{"qty", "name"}, rows)
	want := "qty,name\n4,Sugar"
	if got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}
}

func TestEncode_EscapingRoundTrip(t *testing.T) {
	original := `He said "hi", ok`
	rows := []map[string]any{{"note": original}}

	got := Encode(nil, rows)
	want := "note\n\"He said \"\"hi\"\", ok\""
	if got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}

	// A conforming CSV parser must recover the original string.
	records, err := csv.NewReader(strings.NewReader(got)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse encoded CSV: %v", err)
	}
	if len(records) != 2 || records[1][0] != original {
		t.Errorf("expected round-tripped value %q, got %v", original, records)
	}
}

func TestEncode_NewlineEscaped(t *testing.T) {
	got := Encode([]string{"v"}, []map[string]any{{"v": "line1\nline2"}})
	want := "v\n\"line1\nline2\""
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	nilTime := (*time.Time)(nil)
	nilStr := (*string)(nil)
	s := "hello"

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, ""},
		{"nil time pointer", nilTime, ""},
		{"nil string pointer", nilStr, ""},
		{"string pointer", &s, "hello"},
		{"time", ts, "2025-03-14T09:26:53Z"},
		{"time pointer", &ts, "2025-03-14T09:26:53Z"},
		{"decimal", decimal.RequireFromString("1234.50"), "1234.50"},
		{"decimal integer", decimal.NewFromInt(7), "7"},
		{"int", 42, "42"},
		{"int64", int64(42), "42"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"bytes", []byte("raw"), "raw"},
		{"map json fallback", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"slice json fallback", []any{1, 2}, "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.value); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEncode_NoTrailingNewline(t *testing.T) {
	got := Encode(nil, []map[string]any{{"a": 1}})
	if strings.HasSuffix(got, "\n") {
		t.Errorf("expected no trailing newline, got %q", got)
	}
}

func TestEncode_EmptyRows(t *testing.T) {
	got := Encode(nil, nil)
	if got != "" {
		t.Errorf("expected bare empty header line, got %q", got)
	}
}
