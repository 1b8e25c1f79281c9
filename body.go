package httpmock

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/frk/compare"
)

// The Body type represents the contents of a fulfilled response body, or
// the expected contents of an intercepted request body.
type Body interface {
	// Value returns the underlying value of the Body interface.
	Value() interface{}
	// Reader returns an io.Reader that can be used to read the contents of the body.
	Reader() (io.Reader, error)
	// ContentType returns the media type (MIME) that describes the data contained in the body.
	ContentType() string
	// CompareContent returns the result of the comparison between the
	// Body's contents and the contents of the given io.Reader. The level
	// of strictness of the comparison depends on the implementation. If
	// the contents are equivalent the returned error will be nil, otherwise
	// the error will describe the negative result of the comparison.
	CompareContent(io.Reader) error
}

// JSON wraps the given value v and returns a Body that represents the value as
// json encoded data. The resulting Body uses encoding/json to encode and decode
// the given value, see the encoding/json documentation for more details.
//
// The value is encoded each time the Body's Reader is invoked, therefore if v
// is a pointer, a map, or a slice that's modified after the Body was created,
// the encoded data will reflect those modifications.
func JSON(v interface{}) Body { return jsonbody{v} }

// JSONFunc returns a Body that represents the result of f as json encoded data.
// The func f is invoked each time the Body's Reader is invoked, which makes it
// possible to fulfill a request with scenario state as it is at dispatch time.
func JSONFunc(f func() interface{}) Body { return jsonfuncbody{f} }

// Text wraps the given value v and returns a Body that represents the value as plain text.
func Text(v string) Body { return textbody{v} }

// Raw returns a Body that represents the given bytes as-is with the given content type.
func Raw(contentType string, b []byte) Body { return rawbody{typ: contentType, b: b} }

////////////////////////////////////////////////////////////////////////////////
// JSON Body
////////////////////////////////////////////////////////////////////////////////

// jsonbody implements the Body interface.
type jsonbody struct{ v interface{} }

const jsonContentType = "application/json"

// Value returns the underlying value of the jsonbody.
func (b jsonbody) Value() interface{} { return b.v }

// ContentType returns the media type (MIME) of the jsonbody which
// in this case will always be "application/json".
func (b jsonbody) ContentType() string { return jsonContentType }

// Reader returns an io.Reader that can be used to read the jsonbody's underlying
// value as json encoded data. Reader uses encoding/json's Marshal func to encode the
// underlying value, see the documentation on encoding/json's Marshal for more details.
func (b jsonbody) Reader() (io.Reader, error) {
	bs, err := json.Marshal(b.v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(bs), nil
}

// CompareContent returns the result of the comparison between the jsonbody's
// underlying value and the json data read from the given io.Reader.
//
// CompareContent does a "loose" comparison: every object member present in
// the underlying value must be present, and match, in the data, while members
// present only in the data are ignored. Arrays must match element-wise. See
// MatchObject for details.
func (b jsonbody) CompareContent(r io.Reader) error {
	var got interface{}
	if err := json.NewDecoder(r).Decode(&got); err != nil {
		return &testError{code: errBodyDecode, err: err}
	}
	if err := MatchObject(got, b.v); err != nil {
		return &testError{code: errBodyMismatch, err: err}
	}
	return nil
}

// for debugging
func (b jsonbody) String() string {
	bs, err := json.MarshalIndent(b.v, "", "  ")
	if err != nil {
		log.Error("httpmock: json body", "err", err)
		return "[JSON ERROR]"
	}
	return string(bs)
}

// jsonfuncbody implements the Body interface.
type jsonfuncbody struct{ f func() interface{} }

func (b jsonfuncbody) Value() interface{}               { return b.f() }
func (b jsonfuncbody) ContentType() string              { return jsonContentType }
func (b jsonfuncbody) Reader() (io.Reader, error)       { return jsonbody{b.f()}.Reader() }
func (b jsonfuncbody) CompareContent(r io.Reader) error { return jsonbody{b.f()}.CompareContent(r) }
func (b jsonfuncbody) String() string                   { return jsonbody{b.f()}.String() }

////////////////////////////////////////////////////////////////////////////////
// Text Body
////////////////////////////////////////////////////////////////////////////////

// textbody implements the Body interface.
type textbody struct{ v string }

const textContentType = "text/plain; charset=utf-8"

// Value returns the underlying value of the textbody.
func (b textbody) Value() interface{} { return b.v }

// ContentType returns the media type (MIME) of the textbody.
func (b textbody) ContentType() string { return textContentType }

// Reader returns an io.Reader that can be used to read the textbody's underlying value.
func (b textbody) Reader() (io.Reader, error) {
	return bytes.NewReader([]byte(b.v)), nil
}

// CompareContent returns the result of the comparison between the textbody's
// underlying value and the given io.Reader.
func (b textbody) CompareContent(r io.Reader) error {
	v, err := io.ReadAll(r)
	if err != nil {
		return &testError{code: errBodyDecode, err: err}
	}
	if err := compare.Compare(string(v), b.v); err != nil {
		return &testError{code: errBodyMismatch, err: err}
	}
	return nil
}

// for debugging
func (b textbody) String() string {
	return b.v
}

////////////////////////////////////////////////////////////////////////////////
// Raw Body
////////////////////////////////////////////////////////////////////////////////

type rawbody struct {
	typ string
	b   []byte
}

func (b rawbody) Value() interface{}         { return b.b }
func (b rawbody) ContentType() string        { return b.typ }
func (b rawbody) Reader() (io.Reader, error) { return bytes.NewReader(b.b), nil }
func (b rawbody) String() string             { return string(b.b) }

func (b rawbody) CompareContent(r io.Reader) error {
	v, err := io.ReadAll(r)
	if err != nil {
		return &testError{code: errBodyDecode, err: err}
	}
	if !bytes.Equal(v, b.b) {
		return &testError{code: errBodyMismatch, err: compare.Compare(string(v), string(b.b))}
	}
	return nil
}
