package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAllParts(t *testing.T) {
	r := NewRenderer()

	content, err := r.Render(EmailTemplate{
		Subject: "{{ campaign }} is live",
		HTML:    "<h1>Hello from {{ campaign }}</h1>",
		Text:    "Hello from {{ campaign }}",
	}, map[string]any{"campaign": "Summer Sale"})

	require.NoError(t, err)
	assert.Equal(t, "Summer Sale is live", content.Subject)
	assert.Equal(t, "<h1>Hello from Summer Sale</h1>", content.HTML)
	assert.Equal(t, "Hello from Summer Sale", content.Text)
}

func TestRenderEmptyPartsStayEmpty(t *testing.T) {
	r := NewRenderer()

	content, err := r.Render(EmailTemplate{Subject: "Plain subject"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Plain subject", content.Subject)
	assert.Empty(t, content.HTML)
	assert.Empty(t, content.Text)
}

func TestRenderLiquidFilters(t *testing.T) {
	r := NewRenderer()

	content, err := r.Render(EmailTemplate{
		Subject: "{{ name | upcase }}",
	}, map[string]any{"name": "deal"})

	require.NoError(t, err)
	assert.Equal(t, "DEAL", content.Subject)
}

func TestRenderSyntaxError(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(EmailTemplate{HTML: "{% if %}"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering html body")
}

func TestRenderReusesCachedTemplate(t *testing.T) {
	r := NewRenderer()
	tmpl := EmailTemplate{Subject: "Hi {{ who }}"}

	first, err := r.Render(tmpl, map[string]any{"who": "Ann"})
	require.NoError(t, err)
	second, err := r.Render(tmpl, map[string]any{"who": "Bob"})
	require.NoError(t, err)

	assert.Equal(t, "Hi Ann", first.Subject)
	assert.Equal(t, "Hi Bob", second.Subject)
}

func TestValidate(t *testing.T) {
	r := NewRenderer()

	assert.NoError(t, r.Validate(EmailTemplate{Subject: "{{ ok }}"}))
	assert.Error(t, r.Validate(EmailTemplate{Text: "{% for %}"}))
}
