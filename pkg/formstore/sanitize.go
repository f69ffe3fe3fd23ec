package formstore

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans rich-text markup before submission.
type Sanitizer interface {
	Sanitize(string) string
}

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// HTMLSanitizer returns the shared policy applied to html-format fields:
// bluemonday's user-generated-content policy with target attributes on links.
func HTMLSanitizer() Sanitizer {
	htmlPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		policy.AllowAttrs("class").OnElements("p", "span", "div", "img")
		htmlPolicy = policy
	})
	return htmlPolicy
}
