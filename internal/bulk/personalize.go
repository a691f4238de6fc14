package bulk

import (
	"fmt"
	"strings"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

// Personalize substitutes {{key}} tokens in the subject, HTML, and text of
// the base content using the recipient's data map. Every literal occurrence
// of a key's token is replaced; keys absent from the content are ignored;
// tokens without a matching key are left untouched. Nil values substitute as
// the empty string. No HTML escaping is performed: the content is trusted
// template-engine output, and the substituted values are the caller's own
// subscriber data.
//
// The base content is never mutated; a new value is always returned.
func Personalize(content domain.RenderedContent, data map[string]any) domain.RenderedContent {
	if len(data) == 0 {
		return content
	}

	out := content
	for key, value := range data {
		token := "{{" + key + "}}"
		replacement := formatValue(value)
		out.Subject = strings.ReplaceAll(out.Subject, token, replacement)
		out.HTML = strings.ReplaceAll(out.HTML, token, replacement)
		out.Text = strings.ReplaceAll(out.Text, token, replacement)
	}
	return out
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
