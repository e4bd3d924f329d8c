package codec

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// recordID is an item id that decodes from a number or a numeric string.
// Hand-edited documents carry both forms; it always encodes as a number.
type recordID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *recordID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("id must not be null")
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		return id.parse(s)
	}

	return id.parse(string(b))
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (id *recordID) UnmarshalYAML(b []byte) error {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return err
	}

	switch n := v.(type) {
	case uint64:
		if n > math.MaxInt64 {
			return fmt.Errorf("id %d out of range", n)
		}

		*id = recordID(n)
	case int64:
		*id = recordID(n)
	case int:
		*id = recordID(n)
	case float64:
		return id.parse(strconv.FormatFloat(n, 'f', -1, 64))
	case string:
		return id.parse(n)
	default:
		return fmt.Errorf("id must be a number, got %T", v)
	}

	return nil
}

func (id *recordID) parse(s string) error {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = recordID(n)
		return nil
	}

	// Integral floats such as 1.7e12 are accepted.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return fmt.Errorf("invalid id %q", s)
	}

	*id = recordID(f)

	return nil
}
