package alert

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/adwatch/sentinel/models"
)

// Rendering is kept apart from dispatch decisions: the dispatcher hands a
// plain data structure to this file and gets subject and HTML back.

type alertEmailData struct {
	UserName      string
	CampaignName  string
	Metric        string
	SeverityLabel string
	Direction     string
	ChangePct     string
	CurrentValue  string
	PreviousValue string
	Message       string
	DetectedAt    string
	CalendarNote  string
	Steps         []string
}

var alertBodyTmpl = template.Must(template.New("alert_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222; max-width: 640px;">
  <h2 style="margin-bottom: 4px;">{{.SeverityLabel}}: {{.CampaignName}}</h2>
  <p style="margin-top: 0;">Hi {{.UserName}},</p>
  <p>{{.Message}}</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;"><b>Metric</b></td><td>{{.Metric}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><b>Change</b></td><td>{{.Direction}} {{.ChangePct}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><b>Current value</b></td><td>{{.CurrentValue}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><b>Previous value</b></td><td>{{.PreviousValue}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;"><b>Detected</b></td><td>{{.DetectedAt}}</td></tr>
  </table>
{{if .CalendarNote}}  <p style="color: #666;">{{.CalendarNote}}</p>
{{end}}{{if .Steps}}  <h3>Suggested next steps</h3>
  <ul>
{{range .Steps}}    <li>{{.}}</li>
{{end}}  </ul>
{{end}}  <p style="color: #999; font-size: 12px;">Automated campaign monitoring — reply to adjust alert settings.</p>
</body>
</html>
`))

func severityLabel(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "Critical alert"
	case models.SeverityWarning:
		return "Warning"
	case models.SeverityInfo:
		return "Good news"
	}
	return "Alert"
}

// renderAlert builds the subject and HTML body for one anomaly.
// calendarNote is optional context about an active market event.
func renderAlert(userName string, anomaly models.Anomaly, calendarNote string) (subject, body string, err error) {
	direction := "up"
	if anomaly.ChangePercent < 0 {
		direction = "down"
	}
	if userName == "" {
		userName = "there"
	}

	subject = fmt.Sprintf("[%s] %s: %s %s %.1f%%",
		strings.ToUpper(string(anomaly.Severity)), anomaly.CampaignName,
		anomaly.Metric, direction, math.Abs(anomaly.ChangePercent))

	data := alertEmailData{
		UserName:      userName,
		CampaignName:  anomaly.CampaignName,
		Metric:        string(anomaly.Metric),
		SeverityLabel: severityLabel(anomaly.Severity),
		Direction:     direction,
		ChangePct:     fmt.Sprintf("%.1f%%", math.Abs(anomaly.ChangePercent)),
		CurrentValue:  fmt.Sprintf("%.2f", anomaly.CurrentValue),
		PreviousValue: fmt.Sprintf("%.2f", anomaly.PreviousValue),
		Message:       anomaly.Message,
		DetectedAt:    anomaly.DetectedAt.Format("2006-01-02"),
		CalendarNote:  calendarNote,
		Steps:         anomaly.Recommendations,
	}

	var sb strings.Builder
	if err := alertBodyTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("rendering alert email: %w", err)
	}
	return subject, sb.String(), nil
}
