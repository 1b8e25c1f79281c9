// Package mockdoc writes the exchanges recorded by an httpmock.Router as a
// standalone html transcript, with the request and response bodies
// syntax-highlighted.
package mockdoc

import (
	"io"
	"os"
	"path/filepath"

	"github.com/frk/httpmock"
)

// Page holds the content of a transcript.
type Page struct {
	// The title of the transcript, "Transcript" if empty.
	Title string
	// The name of the chroma style used to highlight the bodies, "github" if empty.
	Style     string
	Exchanges []*httpmock.Exchange
	Failures  []error
}

// FromRouter returns a Page with the exchanges and failures recorded by r.
func FromRouter(title string, r *httpmock.Router) Page {
	return Page{Title: title, Exchanges: r.Exchanges(), Failures: r.Failures()}
}

// Write writes the transcript of p to w.
func Write(w io.Writer, p Page) error {
	doc, err := build(p)
	if err != nil {
		return err
	}
	return T.Execute(w, doc)
}

// WriteFile writes the transcript of p to the named file, creating
// any missing parent directories.
func WriteFile(name string, p Page) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
