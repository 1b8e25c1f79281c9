package mockdoc

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/frk/httpmock"
)

func build(p Page) (*document, error) {
	css, err := stylesheet(p.Style)
	if err != nil {
		return nil, err
	}
	doc := &document{Title: p.Title, CSS: css}
	if doc.Title == "" {
		doc.Title = "Transcript"
	}

	for _, x := range p.Exchanges {
		xx, err := buildExchange(x)
		if err != nil {
			return nil, err
		}
		doc.Exchanges = append(doc.Exchanges, xx)

		doc.Summary.Total += 1
		switch {
		case x.Err != nil:
			doc.Summary.Failed += 1
		case x.Action == httpmock.ActionFulfill:
			doc.Summary.Fulfilled += 1
		case x.Action == httpmock.ActionAbort:
			doc.Summary.Aborted += 1
		default:
			doc.Summary.Passthrough += 1
		}
	}
	for _, err := range p.Failures {
		doc.Failures = append(doc.Failures, stripANSI(err.Error()))
	}
	return doc, nil
}

func buildExchange(x *httpmock.Exchange) (*exchange, error) {
	xx := &exchange{
		ID:        x.ID,
		Time:      x.Time.Format(time.RFC3339Nano),
		Method:    x.Request.Method,
		URL:       x.Request.URL.String(),
		Action:    x.Action.String(),
		Pattern:   x.Pattern,
		Fallbacks: x.Fallbacks,
		Reason:    x.Reason,
	}
	if x.Err != nil {
		xx.Err = stripANSI(x.Err.Error())
	}

	req, err := buildMessage(0, x.Request.Header, x.Request.Body)
	if err != nil {
		return nil, err
	}
	xx.Request = req

	if x.Action == httpmock.ActionFulfill && x.Err == nil {
		res, err := buildMessage(x.StatusCode, x.Header, x.Body)
		if err != nil {
			return nil, err
		}
		xx.Response = res
	}
	return xx, nil
}

func buildMessage(status int, h http.Header, body []byte) (*message, error) {
	m := &message{Status: status}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Header = append(m.Header, headerItem{Key: k, Value: strings.Join(h[k], ", ")})
	}

	if len(body) > 0 {
		code, lang, err := highlight(h.Get("Content-Type"), body)
		if err != nil {
			return nil, err
		}
		m.Code, m.Lang = code, lang
	}
	return m, nil
}

// stripANSI removes the terminal color sequences from s.
func stripANSI(s string) string { return httpmock.StripColor(s) }
