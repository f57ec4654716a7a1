// Package composer builds the grounded prompt from retrieved articles and asks
// the completion service for an answer.
package composer

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"legalrag/internal/domain"
	"legalrag/internal/retriever"
)

const (
	// DefaultTemperature keeps answers close to deterministic.
	DefaultTemperature = 0.1

	// NoApplicableLawText is returned when retrieval produced no articles.
	NoApplicableLawText = "No se encontró ningún artículo aplicable en el Código Penal para esta consulta, " +
		"por lo que no es posible dar una respuesta con base legal. Reformule la consulta o consulte a un abogado."
)

// DefaultTemplate asks for an answer grounded only in {context}.
const DefaultTemplate = `Actúa como un Abogado Penalista Senior de Bolivia.

LEYES APLICABLES AL CASO (Contexto Real):
{context}

CONSULTA DEL CLIENTE:
"{query}"
{fields}
TU RESPUESTA DEBE:
1. Ser directa y empática.
2. Identificar el posible delito basándote SOLO en las leyes de arriba. No inventes artículos ni leyes que no aparezcan en el contexto.
3. Explicar la pena posible (años de cárcel).
4. Mencionar el número de artículo.

Respuesta legal:
`

// Config tunes a Composer.
type Config struct {
	Template string
	// Temperature is sent as is, zero included. Nil means DefaultTemperature.
	Temperature *float64
}

// Composer turns retrieval results into answers.
type Composer struct {
	completer   domain.Completer
	template    string
	temperature float64
	logger      *slog.Logger
}

// New creates a Composer. An empty template or nil temperature falls back to the defaults.
func New(completer domain.Completer, cfg Config, logger *slog.Logger) *Composer {
	tmpl := cfg.Template
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate
	}
	if !strings.Contains(tmpl, "{context}") {
		tmpl += "\n{context}"
	}
	if !strings.Contains(tmpl, "{query}") {
		tmpl += "\n{query}"
	}
	temp := DefaultTemperature
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{completer: completer, template: tmpl, temperature: temp, logger: logger}
}

// Compose fills the template. fields are advisory hints for the model and
// are rendered in key order; they never influence retrieval.
func (c *Composer) Compose(contextBlock, query string, fields map[string]string) string {
	r := strings.NewReplacer(
		"{context}", contextBlock,
		"{query}", query,
		"{fields}", renderFields(fields),
	)
	return r.Replace(c.template)
}

// Answer composes the prompt for res and calls the completer. With no
// retrieved articles it returns NoApplicableLawText without calling the
// completer. On completion failure the returned Answer still carries Sources.
func (c *Composer) Answer(ctx context.Context, res domain.RetrievalResult, query string, fields map[string]string) (domain.Answer, error) {
	ans := domain.Answer{Query: query, Sources: res.Records()}
	if len(res) == 0 {
		ans.Text = NoApplicableLawText
		ans.NoApplicableLaw = true
		return ans, nil
	}
	if c.completer == nil {
		return ans, domain.E(domain.KindCompletionService, "compose answer", "no completer configured", nil)
	}

	prompt := c.Compose(retriever.FormatContext(res), query, fields)
	c.logger.Debug("requesting completion", "completer", c.completer.Name(), "sources", len(res), "prompt_len", len(prompt))

	text, err := c.completer.Complete(ctx, prompt, c.temperature)
	if err != nil {
		if domain.KindOf(err) != domain.KindCompletionService {
			err = domain.E(domain.KindCompletionService, "compose answer", c.completer.Name(), err)
		}
		return ans, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ans, domain.E(domain.KindCompletionService, "compose answer", "empty completion from "+c.completer.Name(), nil)
	}
	ans.Text = text
	return ans, nil
}

func renderFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("\nDATOS ADICIONALES (solo orientativos, no son ley):\n")
	for _, k := range keys {
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(fields[k]))
		b.WriteString("\n")
	}
	return b.String()
}
