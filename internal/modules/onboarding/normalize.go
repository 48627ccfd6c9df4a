package onboarding

import (
	"fmt"
	"strings"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
)

// Normalize extracts the document from the first fetched item. The text is
// passed through untouched; only its presence and type are checked.
func Normalize(res FetchResult) (string, error) {
	const op = "onboarding.Normalize"
	if len(res.Items) == 0 {
		return "", brand.ContentExtraction(op, "no content extracted from URL", nil)
	}
	first := res.Items[0]
	if first.Text == nil {
		return "", brand.ContentExtraction(op, "fetched page has no textual content", nil)
	}
	text, ok := first.Text.(string)
	if !ok {
		return "", brand.ContentExtraction(op, fmt.Sprintf("fetched page content is %T, not text", first.Text), nil)
	}
	if strings.TrimSpace(text) == "" {
		return "", brand.ContentExtraction(op, "fetched page has no textual content", nil)
	}
	return text, nil
}
