package layout

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

var (
	componentFields = []string{"type", "props"}
	rootFields      = []string{"props"}
	documentFields  = []string{"content", "root", "zones"}
)

// MarshalJSON writes Extra after type and props.
func (c Component) MarshalJSON() ([]byte, error) {
	type plain Component
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, c.Extra, componentFields)
}

func (c *Component) UnmarshalJSON(data []byte) error {
	type plain Component
	var decoded plain
	extra, err := decodeWithExtra(data, &decoded, componentFields)
	if err != nil {
		return err
	}
	decoded.Extra = extra
	*c = Component(decoded)
	return nil
}

// MarshalJSON writes Extra after props.
func (r Root) MarshalJSON() ([]byte, error) {
	type plain Root
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, r.Extra, rootFields)
}

func (r *Root) UnmarshalJSON(data []byte) error {
	type plain Root
	var decoded plain
	extra, err := decodeWithExtra(data, &decoded, rootFields)
	if err != nil {
		return err
	}
	decoded.Extra = extra
	*r = Root(decoded)
	return nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var decoded plain
	extra, err := decodeWithExtra(data, &decoded, documentFields)
	if err != nil {
		return err
	}
	decoded.Extra = extra
	*d = Document(decoded)
	return nil
}

func decodeWithExtra(data []byte, dst any, known []string) (map[string]any, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return extraFields(obj, known), nil
}

// extraFields copies the members of obj not named in known. It returns nil
// when there are none.
func extraFields(obj map[string]any, known []string) map[string]any {
	var extra map[string]any
	for key, value := range obj {
		if isKnown(key, known) {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[key] = cloneValue(value)
	}
	return extra
}

func cloneExtra(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	return cloneProps(in)
}

// appendExtra adds the extra members to the JSON object in data, in key
// order. Known names are skipped so they cannot be overwritten.
func appendExtra(data []byte, extra map[string]any, known []string) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(bytes.TrimSpace(data), []byte("}")))
	empty := bytes.Equal(bytes.TrimSpace(data), []byte("{}"))
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		if isKnown(key, known) {
			continue
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(extra[key])
		if err != nil {
			return nil, err
		}
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isKnown(key string, known []string) bool {
	return slices.ContainsFunc(known, func(name string) bool { return strings.EqualFold(name, key) })
}
