package expr

import (
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `ago` renders a timestamp as a human-readable relative time.
		// Example: "stale since {ago(last_activity.timestamp)}".
		cel.Function("ago",
			cel.Overload("ago_timestamp", []*cel.Type{cel.TimestampType}, cel.StringType,
				cel.UnaryBinding(func(ts ref.Val) ref.Val {
					tsValue, ok := ts.(types.Timestamp)
					if !ok {
						return types.NewErr("ago: invalid timestamp value")
					}

					return types.String(humanize.Time(tsValue.Time))
				}),
			),
		),

		// `days` converts a duration to whole days.
		// Example: days(last_activity.delta) > 30.
		cel.Function("days",
			cel.Overload("days_duration", []*cel.Type{cel.DurationType}, cel.IntType,
				cel.UnaryBinding(func(d ref.Val) ref.Val {
					dValue, ok := d.(types.Duration)
					if !ok {
						return types.NewErr("days: invalid duration value")
					}

					return types.Int(int64(dValue.Duration / (24 * time.Hour)))
				}),
			),
		),

		// `pathBase` returns the last element of a file path.
		// Example: pathBase(files.name_regex.full) == "go.mod".
		cel.Function("pathBase",
			cel.Overload("path_base", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathBase: invalid string value")
					}

					return types.String(filepath.Base(pathValue))
				}),
			),
		),

		// `pathDir` returns all but the last element of a file path.
		cel.Function("pathDir",
			cel.Overload("path_dir", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathDir: invalid string value")
					}

					return types.String(filepath.Dir(pathValue))
				}),
			),
		),

		// `pathExt` returns the file extension including the dot.
		cel.Function("pathExt",
			cel.Overload("path_ext", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathExt: invalid string value")
					}

					return types.String(filepath.Ext(pathValue))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}
