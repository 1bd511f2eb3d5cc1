package usecase

import (
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/summary"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func explainPrompt(s summary.Summary) string {
	return "Analyze this CSV summary and explain it:\n" + s.String()
}

func askPrompt(s summary.Summary, question string) string {
	return "Dataset summary:\n" + s.String() + "\n\nUser's question:\n" + question
}

// renderMarkdown converts model output to HTML. Raw HTML in the input is
// dropped.
func renderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank,
	})
	return string(markdown.ToHTML([]byte(md), p, r))
}
