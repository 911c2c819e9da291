package services

import (
	"bytes"
	"html/template"
	"strings"
)

var emailLayout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f1f5f9;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:24px 0;">
    <tr><td align="center">
      <table width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px;">
        <tr><td style="font-size:20px;font-weight:bold;color:#0f172a;padding-bottom:16px;">{{.Title}}</td></tr>
        <tr><td style="font-size:15px;line-height:1.6;color:#334155;">{{.Body}}</td></tr>
        {{if .ActionURL}}
        <tr><td style="padding-top:24px;">
          <a href="{{.ActionURL}}" style="background:#2563eb;color:#ffffff;text-decoration:none;padding:12px 20px;border-radius:6px;display:inline-block;">{{.ActionLabel}}</a>
        </td></tr>
        <tr><td style="font-size:12px;color:#64748b;padding-top:16px;">{{.ActionURL}}</td></tr>
        {{end}}
      </table>
    </td></tr>
  </table>
</body>
</html>`))

type emailContent struct {
	Title       string
	Body        template.HTML
	ActionURL   string
	ActionLabel string
}

func renderEmail(content emailContent) (string, error) {
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// textToHTML escapes user text and keeps its line breaks.
func textToHTML(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
