package dbc

import (
	"context"
	"fmt"

	codec "github.com/joshuapare/dbckit/dbc"
	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

// TableOutput is the result of patching one table in memory.
type TableOutput struct {
	Data        []byte
	Applied     patch.Applied
	Diagnostics []types.Diagnostic
	Interned    []string // strings appended to the string block

	RecordsBefore int
	RecordsAfter  int
	StringsBefore int
	StringsAfter  int
}

// ApplyBytes decodes data, applies plan and encodes the result. name labels
// diagnostics; names may be nil. Layout diagnostics from decoding come first,
// followed by the plan's diagnostics in operation order.
func ApplyBytes(ctx context.Context, name string, data []byte, plan *patch.Plan, names patch.Names, opts TableOptions) (*TableOutput, error) {
	t, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	out := &TableOutput{
		RecordsBefore: len(t.Records),
		StringsBefore: len(t.Strings),
	}
	for _, d := range t.Diagnostics {
		d.Table = name
		out.Diagnostics = append(out.Diagnostics, d)
	}

	if plan != nil && plan.Size() > 0 {
		res, err := patch.NewSession(name, t, names, opts.session()).Apply(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", name, err)
		}
		out.Applied = res.Applied
		out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
		out.Interned = res.Interned
	}

	out.Data, err = codec.Encode(t)
	if err != nil {
		return nil, err
	}
	out.RecordsAfter = len(t.Records)
	out.StringsAfter = len(t.Strings)
	return out, nil
}
