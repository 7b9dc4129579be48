package letters

import (
	"html"
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^[A-Z][^.!?]*$`)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; max-width: 800px; margin: 40px auto; line-height: 1.6; }
h3 { color: #333; margin-top: 20px; }
p { margin: 10px 0; }
</style>
</head>
<body>
`

const htmlTail = `
</body>
</html>
`

// Title is "<template title> - <document type> - <case number>".
func Title(t Template, c Context) string {
	return t.Title + " - " + c.DocumentType + " - " + c.CaseNumber
}

// HTML renders letter text as a standalone page. Lines that look like a heading
// become <h3>, other lines <p>, blank lines <br>. All text is escaped.
func HTML(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case headingRe.MatchString(line):
			out = append(out, "<h3>"+html.EscapeString(line)+"</h3>")
		case strings.TrimSpace(line) != "":
			out = append(out, "<p>"+html.EscapeString(line)+"</p>")
		default:
			out = append(out, "<br>")
		}
	}
	return htmlHead + strings.Join(out, "\n") + htmlTail
}
