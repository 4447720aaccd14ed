package output

import (
	"fmt"
	"strings"
)

// StackRow is one entry line in a rendered stack report. Rows come in
// bottom-to-top order; rendering flips them so the top of the stack prints
// first, the way git log reads.
type StackRow struct {
	Title    string
	PRNumber int
	State    string
	Detail   string
	Current  bool
	Failed   bool
	Warned   bool
}

// RenderStack renders the stack rows as an aligned report
func (s *Splog) RenderStack(rows []StackRow) string {
	var b strings.Builder

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]

		bullet := "◯"
		if row.Current {
			bullet = "◉"
		}

		pr := ""
		if row.PRNumber > 0 {
			pr = fmt.Sprintf(" #%d", row.PRNumber)
		}

		state := row.State
		if s.colored {
			switch {
			case row.Failed:
				state = ColorRed(state)
			case row.Warned:
				state = ColorYellow(state)
			default:
				state = ColorGreen(state)
			}
			pr = ColorCyan(pr)
		}

		fmt.Fprintf(&b, "%s %s%s  [%s]", bullet, row.Title, pr, state)
		if row.Detail != "" {
			detail := row.Detail
			if s.colored {
				detail = ColorDim(detail)
			}
			fmt.Fprintf(&b, " %s", detail)
		}
		b.WriteString("\n")
	}

	return b.String()
}
