// Package yaml wraps [github.com/goccy/go-yaml] with ordered decoding,
// schema validation, and source-annotated errors.
package yaml

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder decodes YAML documents while preserving mapping order.
// Mappings decoded into untyped values become [yaml.MapSlice], which keeps
// the key order of the source document.
type Decoder struct {
	d *yaml.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.UseOrderedMap()),
	}
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// MapSlice re-exports the ordered mapping type produced by [Decoder].
type MapSlice = yaml.MapSlice

// MapItem re-exports the ordered mapping entry type.
type MapItem = yaml.MapItem

// Normalize converts ordered mappings to plain maps and unsigned integers
// to int64, recursively. Schema validation and other JSON-oriented
// consumers need plain values.
func Normalize(v any) any {
	switch tv := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(tv))
		for _, item := range tv {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}

			m[key] = Normalize(item.Value)
		}

		return m

	case map[string]any:
		m := make(map[string]any, len(tv))
		for k, val := range tv {
			m[k] = Normalize(val)
		}

		return m

	case []any:
		s := make([]any, len(tv))
		for i, item := range tv {
			s[i] = Normalize(item)
		}

		return s

	case uint64:
		//nolint:gosec // G115: YAML integers in practice fit in int64.
		return int64(tv)
	}

	return v
}
