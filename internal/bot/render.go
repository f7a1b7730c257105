package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/zombor/fns-bill/internal/fns"
)

// RenderBill formats a bill as Telegram HTML: one line per record, then the
// total after a blank line. Amounts are kopecks shown as rubles.
func RenderBill(bill *fns.Bill) string {
	var sb strings.Builder
	for _, r := range bill.Records() {
		fmt.Fprintf(&sb, "<b>%s</b> - x%d - <code>%s</code>\n", html.EscapeString(r.Name), r.Quantity, formatAmount(r.Price))
	}
	fmt.Fprintf(&sb, "\nTotal: <code>%s</code>", formatAmount(bill.Total()))
	return sb.String()
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}
