package nodes

import (
	"fmt"
	"strings"

	"github.com/insightx/server/internal/insight/model"
)

// NoDataMessage stands in for the rendered table when a query produced no
// rows or failed. The synthesis model sees this exact string.
const NoDataMessage = "No data found."

// RenderTable renders a result as a markdown pipe table for the synthesis
// prompt. Column order follows the SELECT list.
func RenderTable(t *model.Table) string {
	if t.Empty() {
		return NoDataMessage
	}

	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(t.Columns, " | "))
	b.WriteString(" |\n|")
	for range t.Columns {
		b.WriteString(" --- |")
	}
	b.WriteByte('\n')
	for _, row := range t.Rows {
		b.WriteString("| ")
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = renderCell(row[col])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCell(v any) string {
	if v == nil {
		return model.NullToken
	}
	// keep pipe characters from breaking table structure
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "|", "\\|")
}
