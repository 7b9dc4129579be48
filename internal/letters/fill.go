package letters

import (
	"strings"
	"unicode/utf8"
)

// Fill renders a template without any provider. Substitution is a single pass:
// a substituted value is never scanned for further placeholders.
func Fill(t Template, c Context) string {
	values := c.Values()
	var b strings.Builder
	for _, s := range t.Sections {
		if !sectionVisible(s, c) {
			continue
		}
		if s.Title != "" {
			b.WriteString("\n")
			b.WriteString(s.Title)
			b.WriteString("\n")
			b.WriteString(strings.Repeat("=", utf8.RuneCountInString(s.Title)))
			b.WriteString("\n")
		}
		b.WriteString(substitute(s.Content, values))
		b.WriteString("\n")
	}
	return b.String()
}

func sectionVisible(s Section, c Context) bool {
	if s.Condition == "" {
		return true
	}
	if name, negated := strings.CutPrefix(s.Condition, "!"); negated {
		return !c.Condition(name)
	}
	return c.Condition(s.Condition)
}

func substitute(content string, values map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(content, func(tok string) string {
		return values[tok[2:len(tok)-2]]
	})
}
