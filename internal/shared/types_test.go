package shared

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSON_Value(t *testing.T) {
	tests := []struct {
		name     string
		column   JSON[[]sample]
		expected any
	}{
		{
			name:     "nil slice",
			column:   NewJSON[[]sample](nil),
			expected: nil,
		},
		{
			name:     "empty slice",
			column:   NewJSON([]sample{}),
			expected: "[]",
		},
		{
			name:     "items",
			column:   NewJSON([]sample{{Name: "a", Count: 1}}),
			expected: `[{"name":"a","count":1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.column.Value()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestJSON_Scan(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int
		wantErr  bool
	}{
		{name: "nil value", input: nil, expected: 0},
		{name: "byte slice", input: []byte(`[{"name":"a"},{"name":"b"}]`), expected: 2},
		{name: "string", input: `[{"name":"x"}]`, expected: 1},
		{name: "empty array", input: "[]", expected: 0},
		{name: "invalid type", input: 123, wantErr: true},
		{name: "invalid json", input: "not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var col JSON[[]sample]
			err := col.Scan(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(col.Data) != tt.expected {
				t.Errorf("expected len %d, got %d", tt.expected, len(col.Data))
			}
		})
	}
}

func TestJSON_ScanResetsPreviousValue(t *testing.T) {
	col := NewJSON([]sample{{Name: "old"}})
	if err := col.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Data != nil {
		t.Errorf("expected nil data after scanning NULL, got %v", col.Data)
	}
}

func TestNewID(t *testing.T) {
	tests := []struct {
		prefix string
	}{
		{prefix: "user_"},
		{prefix: "agent_"},
		{prefix: "conv_"},
		{prefix: ""},
	}

	for _, tt := range tests {
		t.Run("prefix_"+tt.prefix, func(t *testing.T) {
			id := NewID(tt.prefix)
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("expected ID to start with '%s', got '%s'", tt.prefix, id)
			}
			expectedLen := len(tt.prefix) + 32
			if len(id) != expectedLen {
				t.Errorf("expected length %d, got %d", expectedLen, len(id))
			}
		})
	}

	id1 := NewID("test_")
	id2 := NewID("test_")
	if id1 == id2 {
		t.Error("expected unique IDs, got duplicates")
	}
}
