package driver

import (
	"fmt"
	"strings"
)

// By is a strategy for finding elements.
type By string

const (
	ByID              By = "id"
	ByCSS             By = "css selector"
	ByXPath           By = "xpath"
	ByLinkText        By = "link text"
	ByPartialLinkText By = "partial link text"
	ByClassName       By = "class name"
	ByTagName         By = "tag name"
	ByName            By = "name"
)

// Locator identifies one or more elements on a page. Locators are values and
// are safe to share between sessions.
type Locator struct {
	By    By
	Value string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// Validate reports an unusable locator.
func (l Locator) Validate() error {
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("locator %s has an empty value", l.By)
	}
	switch l.By {
	case ByID, ByCSS, ByXPath, ByLinkText, ByPartialLinkText, ByClassName, ByTagName, ByName:
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", l.By)
	}
}

func ID(v string) Locator              { return Locator{By: ByID, Value: v} }
func CSS(v string) Locator             { return Locator{By: ByCSS, Value: v} }
func XPath(v string) Locator           { return Locator{By: ByXPath, Value: v} }
func LinkText(v string) Locator        { return Locator{By: ByLinkText, Value: v} }
func PartialLinkText(v string) Locator { return Locator{By: ByPartialLinkText, Value: v} }
func ClassName(v string) Locator       { return Locator{By: ByClassName, Value: v} }
func TagName(v string) Locator         { return Locator{By: ByTagName, Value: v} }
func Name(v string) Locator            { return Locator{By: ByName, Value: v} }

// CSSSelector returns an equivalent CSS selector, or ok=false when the
// strategy has no CSS form (xpath and the link-text strategies).
func (l Locator) CSSSelector() (sel string, ok bool) {
	switch l.By {
	case ByCSS:
		return l.Value, true
	case ByID:
		return `[id="` + cssEscape(l.Value) + `"]`, true
	case ByClassName:
		return "." + strings.Join(strings.Fields(l.Value), "."), true
	case ByTagName:
		return strings.ToLower(l.Value), true
	case ByName:
		return `[name="` + cssEscape(l.Value) + `"]`, true
	default:
		return "", false
	}
}

// XPathExpr returns an equivalent XPath expression for every strategy.
func (l Locator) XPathExpr() string {
	switch l.By {
	case ByXPath:
		return l.Value
	case ByID:
		return "//*[@id=" + xpathLiteral(l.Value) + "]"
	case ByName:
		return "//*[@name=" + xpathLiteral(l.Value) + "]"
	case ByTagName:
		return "//" + strings.ToLower(l.Value)
	case ByClassName:
		var b strings.Builder
		b.WriteString("//*")
		for _, c := range strings.Fields(l.Value) {
			b.WriteString("[contains(concat(' ', normalize-space(@class), ' '), " + xpathLiteral(" "+c+" ") + ")]")
		}
		return b.String()
	case ByLinkText:
		return "//a[normalize-space(.)=" + xpathLiteral(strings.TrimSpace(l.Value)) + "]"
	case ByPartialLinkText:
		return "//a[contains(., " + xpathLiteral(l.Value) + ")]"
	default:
		// ByCSS has no general XPath form; callers check CSSSelector first.
		return ""
	}
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape syntax.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
