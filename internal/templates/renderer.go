// Package templates renders email templates with the Liquid template
// language. It produces the base RenderedContent for a bulk job; recipient
// level {{token}} substitution happens later in the bulk pipeline, so data
// here is job-level (campaign name, offer fields), not per-recipient.
package templates

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

// EmailTemplate is the raw template source for one email.
type EmailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer compiles and renders Liquid templates with parsed-template
// caching keyed on the template source.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{engine: liquid.NewEngine()}
}

// Render produces the job's base content from a template and data map.
func (r *Renderer) Render(tmpl EmailTemplate, data map[string]any) (domain.RenderedContent, error) {
	subject, err := r.renderOne(tmpl.Subject, data)
	if err != nil {
		return domain.RenderedContent{}, fmt.Errorf("rendering subject: %w", err)
	}
	html, err := r.renderOne(tmpl.HTML, data)
	if err != nil {
		return domain.RenderedContent{}, fmt.Errorf("rendering html body: %w", err)
	}
	text, err := r.renderOne(tmpl.Text, data)
	if err != nil {
		return domain.RenderedContent{}, fmt.Errorf("rendering text body: %w", err)
	}

	return domain.RenderedContent{Subject: subject, HTML: html, Text: text}, nil
}

// Validate compiles the template and returns any syntax errors without
// rendering.
func (r *Renderer) Validate(tmpl EmailTemplate) error {
	for _, src := range []string{tmpl.Subject, tmpl.HTML, tmpl.Text} {
		if _, err := r.engine.ParseString(src); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderOne(src string, data map[string]any) (string, error) {
	if src == "" {
		return "", nil
	}

	if cached, ok := r.cache.Load(src); ok {
		return cached.(*liquid.Template).RenderString(data)
	}

	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return "", err
	}
	r.cache.Store(src, tpl)

	return tpl.RenderString(data)
}
