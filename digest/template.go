package digest

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"ewintr.nl/tubedigest/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{ .Subject }}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f4;font-family:Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background-color:#cc0000;color:#ffffff;padding:24px;">
<h1 style="margin:0;font-size:22px;">YouTube Digest</h1>
<p style="margin:8px 0 0;font-size:14px;">
{{ .PeriodStart.Format "02.01.2006" }} - {{ .PeriodEnd.Format "02.01.2006" }}<br>
{{ .VideoCount }} Videos | {{ .TotalDuration }} Gesamtdauer
</p>
</td></tr>
{{ range .Groups }}
<tr><td style="padding:20px 24px 4px;">
<h2 style="margin:0;font-size:17px;color:#cc0000;border-bottom:2px solid #eeeeee;padding-bottom:6px;">
{{ .Category }} ({{ len .Items }})
</h2>
</td></tr>
{{ range .Items }}
<tr><td style="padding:12px 24px;">
<h3 style="margin:0 0 4px;font-size:15px;">
<a href="{{ .WatchURL }}" style="color:#1a1a1a;text-decoration:none;">{{ .Title }}</a>
</h3>
<p style="margin:0 0 8px;font-size:12px;color:#777777;">
{{ .ChannelName }} | {{ .Duration }} | {{ .PublishedAt.Format "02.01.2006" }}
</p>
<p style="margin:0 0 8px;font-size:14px;color:#333333;">{{ .CoreMessage }}</p>
{{ if .KeyTakeaways }}
<ul style="margin:0 0 8px;padding-left:20px;font-size:13px;color:#444444;">
{{ range .KeyTakeaways }}<li>{{ . }}</li>
{{ end }}</ul>
{{ end }}
{{ if .ActionItems }}
<p style="margin:0 0 4px;font-size:13px;font-weight:bold;color:#444444;">Action Items:</p>
<ul style="margin:0 0 8px;padding-left:20px;font-size:13px;color:#444444;">
{{ range .ActionItems }}<li>{{ . }}</li>
{{ end }}</ul>
{{ end }}
<p style="margin:0;font-size:12px;">
<a href="{{ .SummaryURL }}" style="color:#cc0000;">Vollständige Zusammenfassung</a> |
<a href="{{ .WatchURL }}" style="color:#cc0000;">Auf YouTube ansehen</a>
</p>
</td></tr>
{{ end }}
{{ end }}
<tr><td style="padding:20px 24px;background-color:#fafafa;font-size:12px;color:#999999;">
<a href="{{ .DashboardURL }}" style="color:#cc0000;">Zum Dashboard</a><br>
Generiert am {{ .GeneratedAt.Format "02.01.2006 15:04" }}
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`

var digestTemplate = template.Must(template.New("digest").Parse(htmlTemplate))

type templateData struct {
	Subject       string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	VideoCount    int
	TotalDuration string
	Groups        []Group
	DashboardURL  string
	GeneratedAt   time.Time
}

func renderHTML(result *Result, groups []Group, dashboardBaseURL string) (string, error) {
	var b strings.Builder
	err := digestTemplate.Execute(&b, templateData{
		Subject:       result.Subject,
		PeriodStart:   result.PeriodStart,
		PeriodEnd:     result.PeriodEnd,
		VideoCount:    result.VideoCount,
		TotalDuration: model.FormatHuman(result.TotalDurationSeconds),
		Groups:        groups,
		DashboardURL:  dashboardBaseURL + "/dashboard",
		GeneratedAt:   time.Now(),
	})
	if err != nil {
		return "", err
	}

	return b.String(), nil
}

// renderPlainText builds the text alternative by hand, mail clients get a
// predictable fallback that way.
func renderPlainText(result *Result, groups []Group, dashboardBaseURL string) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("YOUTUBE DIGEST\n")
	fmt.Fprintf(&b, "%s - %s\n",
		result.PeriodStart.Format("02.01.2006"), result.PeriodEnd.Format("02.01.2006"))
	fmt.Fprintf(&b, "%d Videos | %s Gesamtdauer\n",
		result.VideoCount, model.FormatHuman(result.TotalDurationSeconds))
	b.WriteString(rule + "\n")

	for _, group := range groups {
		b.WriteString("\n" + strings.Repeat("-", 40) + "\n")
		fmt.Fprintf(&b, "> %s (%d Videos)\n", strings.ToUpper(string(group.Category)), len(group.Items))
		b.WriteString(strings.Repeat("-", 40) + "\n")

		for _, item := range group.Items {
			fmt.Fprintf(&b, "\n[VIDEO] %s\n", item.Title)
			fmt.Fprintf(&b, "   %s | %s\n", item.ChannelName, item.Duration)
			fmt.Fprintf(&b, "   %s\n\n", item.WatchURL)
			fmt.Fprintf(&b, "   %s\n", item.CoreMessage)

			if len(item.KeyTakeaways) > 0 {
				b.WriteString("\n   Key Takeaways:\n")
				takeaways := item.KeyTakeaways
				if len(takeaways) > 5 {
					takeaways = takeaways[:5]
				}
				for _, takeaway := range takeaways {
					fmt.Fprintf(&b, "   * %s\n", takeaway)
				}
			}
			if len(item.ActionItems) > 0 {
				b.WriteString("\n   Action Items:\n")
				actionItems := item.ActionItems
				if len(actionItems) > 3 {
					actionItems = actionItems[:3]
				}
				for _, actionItem := range actionItems {
					fmt.Fprintf(&b, "   -> %s\n", actionItem)
				}
			}
			fmt.Fprintf(&b, "\n   -> Vollstaendige Zusammenfassung: %s\n", item.SummaryURL)
		}
	}

	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "Dashboard: %s/dashboard\n", dashboardBaseURL)
	fmt.Fprintf(&b, "Generiert: %s\n", time.Now().Format("02.01.2006 15:04"))
	b.WriteString(rule + "\n")

	return b.String()
}
