package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// encodeTags serializes a tool result into the compact tag-based markup
// fed back to the model. Maps become <key>value</key> pairs with keys
// sorted for determinism, slices wrap elements in <item> tags, and
// scalars render bare. Structs are normalized through their JSON form
// first so handlers can return plain typed values.
func encodeTags(v any) string {
	var sb strings.Builder
	writeTags(&sb, normalize(v))
	return sb.String()
}

// normalize converts arbitrary handler return values into the
// map/slice/scalar shapes writeTags understands.
func normalize(v any) any {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		map[string]any, []any:
		return v
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return string(data)
	}
	return out
}

func writeTags(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
	case string:
		sb.WriteString(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString("<")
			sb.WriteString(k)
			sb.WriteString(">")
			writeTags(sb, val[k])
			sb.WriteString("</")
			sb.WriteString(k)
			sb.WriteString(">")
		}
	case []any:
		for _, item := range val {
			sb.WriteString("<item>")
			writeTags(sb, item)
			sb.WriteString("</item>")
		}
	case float64:
		// JSON round-tripping turns every number into float64; render
		// integral values without a decimal point.
		if val == float64(int64(val)) {
			fmt.Fprintf(sb, "%d", int64(val))
			return
		}
		fmt.Fprintf(sb, "%g", val)
	default:
		fmt.Fprint(sb, val)
	}
}
