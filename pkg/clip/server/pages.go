package server

import (
	"bytes"
	"html/template"
	"net/http"
)

const pageLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{template "title" .}}</title>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
        display: flex;
        justify-content: center;
        align-items: center;
        min-height: 100vh;
        margin: 0;
        background: #f7f6f3;
        color: #333;
      }
      .card {
        background: white;
        border-radius: 12px;
        padding: 48px 56px;
        text-align: center;
        box-shadow: 0 4px 24px rgba(0,0,0,0.08);
        max-width: 380px;
      }
      .checkmark { font-size: 48px; margin-bottom: 16px; }
      h2 { margin: 0 0 8px; font-size: 22px; color: #1a1a1a; }
      p { margin: 0; color: #666; font-size: 15px; line-height: 1.5; }
      .detail { margin-top: 12px; font-size: 12px; color: #999; }
    </style>
  </head>
  <body>
    <div class="card">{{template "body" .}}</div>
  </body>
</html>
{{end}}`

var (
	cancelledPage = mustPage(`
{{define "title"}}Login Cancelled{{end}}
{{define "body"}}
      <h2>Login cancelled</h2>
      <p>You declined access. You can close this tab and try again.</p>
{{end}}`)

	failedPage = mustPage(`
{{define "title"}}Login Failed{{end}}
{{define "body"}}
      <h2>Login failed</h2>
      <p>Something went wrong during login. Please close this tab and try again.</p>
      <p class="detail">Error: {{.Error}}</p>
{{end}}`)

	successPage = mustPage(`
{{define "title"}}Login Successful{{end}}
{{define "body"}}
      <div class="checkmark">&#10003;</div>
      <h2>You're logged in!</h2>
      <p>You can close this tab and return to the extension.</p>
{{end}}`)
)

type pageData struct {
	Error string
}

func mustPage(body string) *template.Template {
	t := template.Must(template.New("page").Parse(pageLayout))
	return template.Must(t.Parse(body))
}

// renderPage executes the page into a buffer first so a template failure can
// still be answered with a clean 500.
func (k *ClipRelayServer) renderPage(w http.ResponseWriter, req *http.Request, code int, page *template.Template, data pageData) {
	buf := &bytes.Buffer{}
	if err := page.ExecuteTemplate(buf, "layout", data); err != nil {
		k.handleError(err, req, w, "Internal server error. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	n, _ := w.Write(buf.Bytes())
	k.logRequest(req, code, n)
}
