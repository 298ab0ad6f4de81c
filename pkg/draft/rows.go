package draft

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Palette is the cycle of default colours given to new rows.
var Palette = []string{"#F25F5C", "#3A86FF", "#FF9F1C", "#2EC4B6", "#8E7DBE", "#E76F51", "#43AA8B", "#FF006E"}

// Row is one category limit of a draft. Id is only unique within its draft.
type Row struct {
	Id         string
	CategoryId string
	LimitInput string
	ColorHex   string
}

// RowPatch holds the fields to change; nil fields are left as they are.
type RowPatch struct {
	CategoryId *string
	LimitInput *string
	ColorHex   *string
}

type IdGenerator func() string

func UUIDs() IdGenerator {
	return uuid.NewString
}

// Counter returns ids "<prefix>1", "<prefix>2", ...
func Counter(prefix string) IdGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// AddRow appends an empty-limit row. Its colour cycles through Palette by
// position.
func AddRow(rows []Row, seedCategoryId string, nextId IdGenerator) []Row {
	out := make([]Row, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, Row{
		Id:         nextId(),
		CategoryId: seedCategoryId,
		ColorHex:   Palette[len(rows)%len(Palette)],
	})
}

func RemoveRow(rows []Row, rowId string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Id != rowId {
			out = append(out, row)
		}
	}
	return out
}

func UpdateRow(rows []Row, rowId string, patch RowPatch) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Id != rowId {
			continue
		}
		if patch.CategoryId != nil {
			out[i].CategoryId = *patch.CategoryId
		}
		if patch.LimitInput != nil {
			out[i].LimitInput = *patch.LimitInput
		}
		if patch.ColorHex != nil {
			out[i].ColorHex = *patch.ColorHex
		}
	}
	return out
}
