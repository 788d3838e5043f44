package components

import (
	"context"
	"strings"
	"text/template"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Template renders a text/template. The template is parsed once per change of text
// and rendered against data whenever data changes.
type Template struct{}

// Kind implements domain.Component.
func (Template) Kind() string { return "template" }

// Schema implements domain.Component.
func (Template) Schema() domain.Schema {
	return domain.Schema{
		Inports: []domain.InportSpec{
			{Name: "text", Usage: domain.UsageStatic, Initial: "", HasInitial: true},
			{Name: "data", Usage: domain.UsageInherit},
		},
		Outports: []domain.OutportSpec{{
			Name:    "out",
			Usage:   domain.UsageInherit,
			Depends: []string{"text", "data"},
			Compile: parseTemplate,
			Execute: renderTemplate,
		}},
	}
}

func parseTemplate(_ context.Context, nc domain.NodeContext) (any, error) {
	v, err := nc.Statically("text")
	if err != nil {
		return nil, err
	}
	text, ok := v.(string)
	if !ok {
		return nil, zerr.With(domain.ErrUnexpectedValue, "inport", "text")
	}
	tmpl, err := template.New(nc.Node().String()).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "stage", "parse")
	}
	return tmpl, nil
}

func renderTemplate(_ context.Context, nc domain.NodeContext) (any, error) {
	compiled, err := nc.Compiled()
	if err != nil {
		return nil, err
	}
	tmpl, ok := compiled.(*template.Template)
	if !ok {
		return nil, zerr.With(domain.ErrUnexpectedValue, "compiled", domain.FormatValue(compiled))
	}
	data, _, err := nc.Evaluate("data")
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "stage", "render")
	}
	return sb.String(), nil
}
