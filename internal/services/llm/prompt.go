package llm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/stockreport/internal/models"
)

// PromptVersion identifies the narrative prompt template. Bump it whenever the template changes
// so reports can be traced back to the instructions that produced them.
const PromptVersion = "v1"

// SystemPrompt is sent as the system instruction by providers that support one.
const SystemPrompt = "You are a financial analyst writing concise, factual equity performance reports."

//go:embed templates/*.tmpl
var promptFS embed.FS

var promptTemplate = template.Must(
	template.New("prompt_" + PromptVersion + ".tmpl").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
			"fixed": func(d decimal.Decimal) string { return d.StringFixed(2) },
		}).
		ParseFS(promptFS, "templates/prompt_"+PromptVersion+".tmpl"),
)

type promptData struct {
	Symbol  string
	From    string
	To      string
	Metrics models.Metrics
}

// BuildPrompt renders the narrative prompt for one symbol.
func BuildPrompt(symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, promptData{
		Symbol:  symbol,
		From:    dateRange.From.Format(models.DateLayout),
		To:      dateRange.To.Format(models.DateLayout),
		Metrics: metrics,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", PromptVersion, err)
	}
	return buf.String(), nil
}
