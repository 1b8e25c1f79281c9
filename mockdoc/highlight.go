package mockdoc

import (
	"bytes"
	"encoding/json"
	"html/template"
	"mime"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var formatter = html.New(html.WithClasses(true), html.PreventSurroundingPre(true))

// highlight returns the body as highlighted html, json bodies are indented
// first. The returned lang is the name of the lexer used.
func highlight(contentType string, body []byte) (code template.HTML, lang string, err error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
		mt = "application/json"
	}

	lexer := lexers.MatchMimeType(mt)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, string(body))
	if err != nil {
		return "", "", err
	}
	var b strings.Builder
	if err := formatter.Format(&b, styles.Get(defaultStyle), it); err != nil {
		return "", "", err
	}
	return template.HTML(b.String()), lexer.Config().Name, nil
}

const defaultStyle = "github"

// stylesheet returns the css of the named chroma style.
func stylesheet(name string) (template.CSS, error) {
	if name == "" {
		name = defaultStyle
	}
	var b strings.Builder
	if err := formatter.WriteCSS(&b, styles.Get(name)); err != nil {
		return "", err
	}
	return template.CSS(b.String()), nil
}
