package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

const systemPrompt = "You are a New York City property risk analyst. " +
	"Explain risk scores in plain language using only the data provided. " +
	"Never invent numbers that are not in the context."

var promptTemplate = template.Must(template.New("explain").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"sim":   func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"names": componentNames,
	"tier":  crimeTier,
}).Parse(`Property address: {{.Query.Raw}}{{if .Query.Matched}} (matched {{.Query.Matched}}){{end}}
Census tract: {{.Query.TractID}}, projection horizon: {{.Horizon}}

Tract profile:
{{.TractSummary}}

Sub-scores (0-100, higher means riskier):
{{- range .SubScores}}
- {{.Kind}}: {{if eq .Status "computed"}}{{pct .Value}} (confidence {{printf "%.2f" .Confidence}}){{with tier .}}, {{.}} relative to the borough{{end}}{{else}}insufficient data{{if .Reason}}, {{.Reason}}{{end}}{{end}}
{{- $c := .Components}}{{range names $c}}
    {{.}}: raw {{printf "%.2f" (index $c .).Raw}}, normalized {{pct (index $c .).Normalized}}{{if (index $c .).Defaulted}} (borough median){{end}}
{{- end}}
{{- end}}

Overall risk score: {{if eq .Overall.Status "computed"}}{{pct .Overall.Value}} / 100{{else}}not available{{end}}
{{- if .Retrieval.Hits}}

Tracts with a similar risk profile:
{{- range .Retrieval.Hits}}
- {{.TractID}} (similarity {{sim .Similarity}}): {{.Text}}
{{- end}}
{{- end}}

Explain what the overall score means for someone living at or buying this property.
Cover flood exposure over the selected horizon, neighborhood safety and building characteristics,
mention which factors drive the score and note any sub-score that lacks data.
Keep it under 200 words.
`))

func componentNames(m map[string]score.Component) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// crimeTier labels a computed crime sub-score by its borough z-score.
func crimeTier(s score.SubScore) string {
	if s.Kind != score.Crime || !s.IsComputed() {
		return ""
	}
	z, ok := s.Components[scoring.ComponentZScore]
	if !ok {
		return ""
	}
	return scoring.CrimeTier(z.Raw)
}

// RenderPrompt renders the explanation prompt for an assembled context.
func RenderPrompt(rc *riskctx.RiskContext) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, rc); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// Explain narrates an assembled context with the configured generator.
func (s *Service) Explain(ctx context.Context, rc *riskctx.RiskContext) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGenerationDisabled
	}
	ctx, span := s.tracer.Start(ctx, "pipeline.Explain")
	defer span.End()

	prompt, err := RenderPrompt(rc)
	if err != nil {
		return "", err
	}
	text, err := s.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Warn("Explanation failed", zap.String("id", rc.ID), zap.Error(err))
		return "", fmt.Errorf("explain: %w", err)
	}
	return text, nil
}
