package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	subjectStaleDigest       = "Deals going quiet: your pipeline needs attention"
	subjectTransitionFailure = "Stage change failed and was rolled back"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<h2>Deals without recent activity</h2>
<p>The following deals have had no activity past the staleness threshold:</p>
<table border="0" cellpadding="6">
<tr><th align="left">Buyer</th><th align="left">Property</th><th align="left">Stage</th><th align="left">Last activity</th></tr>
{{range .Deals}}<tr>
<td>{{.BuyerName}}</td>
<td>{{.PropertyLabel}}</td>
<td>{{.Stage}}</td>
<td>{{.LastActivityAt.Format "Jan 2, 2006"}}</td>
</tr>{{end}}
</table>
</body></html>`))

var failureTemplate = template.Must(template.New("failure").Parse(`<html><body>
<h2>Stage change rolled back</h2>
<p>Deal <strong>{{.DealID}}</strong> could not move from
<strong>{{.FromStage}}</strong> to <strong>{{.ToStage}}</strong>.</p>
<p>Reason: {{.Reason}}</p>
<p>The board was reverted; re-drag the card to retry.</p>
</body></html>`))

type digestData struct {
	Deals []StaleDeal
}

type failureData struct {
	DealID    string
	FromStage string
	ToStage   string
	Reason    string
}

func renderDigest(deals []StaleDeal) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, digestData{Deals: deals}); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func renderFailure(dealID, fromStage, toStage, reason string) (string, error) {
	var buf bytes.Buffer
	err := failureTemplate.Execute(&buf, failureData{
		DealID:    dealID,
		FromStage: fromStage,
		ToStage:   toStage,
		Reason:    reason,
	})
	if err != nil {
		return "", fmt.Errorf("render failure alert: %w", err)
	}
	return buf.String(), nil
}
