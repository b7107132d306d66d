package agent

import "testing"

func TestEncodeTags(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "scalar string",
			in:   "hello",
			want: "hello",
		},
		{
			name: "map with sorted keys",
			in:   map[string]any{"b": "2", "a": "1"},
			want: "<a>1</a><b>2</b>",
		},
		{
			name: "nested map",
			in:   map[string]any{"result": map[string]any{"count": 3}},
			want: "<result><count>3</count></result>",
		},
		{
			name: "slice wraps items",
			in:   []any{"x", "y"},
			want: "<item>x</item><item>y</item>",
		},
		{
			name: "integral float renders without decimal",
			in:   map[string]any{"n": float64(42)},
			want: "<n>42</n>",
		},
		{
			name: "fractional float",
			in:   map[string]any{"score": 1.2},
			want: "<score>1.2</score>",
		},
		{
			name: "nil",
			in:   nil,
			want: "",
		},
		{
			name: "bool",
			in:   map[string]any{"ok": true},
			want: "<ok>true</ok>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeTags(tt.in); got != tt.want {
				t.Errorf("encodeTags(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeTags_NormalizesStructs(t *testing.T) {
	type result struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	got := encodeTags(result{Name: "Ada", Score: 7})
	want := "<name>Ada</name><score>7</score>"
	if got != want {
		t.Errorf("encodeTags(struct) = %q, want %q", got, want)
	}
}

func TestEncodeTags_ErrorPayload(t *testing.T) {
	payload := map[string]any{
		"error": "Unknown tool: getStock",
	}
	got := encodeTags(payload)
	want := "<error>Unknown tool: getStock</error>"
	if got != want {
		t.Errorf("encodeTags(error payload) = %q, want %q", got, want)
	}
}
