package templates

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linesmerrill/clinic-api/models"
)

// RenderGenericEmail generates branded HTML for an email. bodyContent is plain text that
// gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	return renderLayout(subject, strings.ReplaceAll(escaped, "\n", "<br>"))
}

// Digest is everything the daily financial digest reports on
type Digest struct {
	Date     string
	Branch   string
	Summary  models.DashboardSummary
	Revenue  models.RevenueExpense
	Expenses map[string]float64
}

// RenderDailyDigest returns the subject, HTML and plain-text bodies of the digest email
func RenderDailyDigest(d Digest) (subject, htmlBody, plain string) {
	subject = fmt.Sprintf("Daily summary for %s (%s)", d.Date, d.Branch)

	rows := [][2]string{
		{"Registrations", fmt.Sprintf("%d", d.Summary.Registrations)},
		{"Total paid", rupees(d.Summary.TotalPaid)},
		{"Cash", rupees(d.Summary.CashTotal)},
		{"Online", rupees(d.Summary.OnlineTotal)},
		{"Pipeline", rupees(d.Summary.Pipeline)},
		{"Revenue", rupees(d.Revenue.Revenue)},
		{"Expense", rupees(d.Revenue.Expense)},
		{"Net", rupees(d.Revenue.Revenue - d.Revenue.Expense)},
	}

	categories := make([]string, 0, len(d.Expenses))
	for c := range d.Expenses {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var text, table strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&text, "%s: %s\n", row[0], row[1])
		fmt.Fprintf(&table, "<tr><td>%s</td><td class=\"num\">%s</td></tr>", html.EscapeString(row[0]), html.EscapeString(row[1]))
	}
	if len(categories) > 0 {
		text.WriteString("\nExpenses by category\n")
		table.WriteString(`<tr><th colspan="2">Expenses by category</th></tr>`)
		for _, c := range categories {
			fmt.Fprintf(&text, "%s: %s\n", c, rupees(d.Expenses[c]))
			fmt.Fprintf(&table, "<tr><td>%s</td><td class=\"num\">%s</td></tr>", html.EscapeString(c), html.EscapeString(rupees(d.Expenses[c])))
		}
	}

	htmlBody = renderLayout(subject, "<table>"+table.String()+"</table>")
	return subject, htmlBody, text.String()
}

func rupees(v float64) string {
	return "Rs. " + decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func renderLayout(subject, content string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f6f8; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: #0f766e; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .content table { width: 100%%; border-collapse: collapse; }
    .content td, .content th { padding: 6px 4px; border-bottom: 1px solid #e5e7eb; text-align: left; }
    .content td.num { text-align: right; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>Sent automatically by the clinic backend.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, content)
}
