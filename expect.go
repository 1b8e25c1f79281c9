package httpmock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/frk/compare"
)

// An Expectation checks an intercepted request. A failed check returns
// an error for which IsAssertion reports true.
type Expectation func(req *Request) error

// Method expects the request's method to be equal to m.
func Method(m string) Expectation {
	m = strings.ToUpper(m)
	return func(req *Request) error {
		if req.Method != m {
			return &testError{code: errExpectMethod, want: m}
		}
		return nil
	}
}

// HasHeader expects the request's header to contain the given key with the
// given value. If value is empty only the presence of the key is checked.
func HasHeader(key, value string) Expectation {
	return func(req *Request) error {
		vv, ok := req.Header[http.CanonicalHeaderKey(key)]
		if !ok {
			return &testError{code: errExpectHeader, hkey: key, want: value}
		}
		if value == "" {
			return nil
		}
		for _, v := range vv {
			if v == value {
				return nil
			}
		}
		return &testError{code: errExpectHeader, hkey: key, want: value}
	}
}

// MatchHeader expects the request's header to contain every key-value pair
// of the header returned by h.
func MatchHeader(h HeaderGetter) Expectation {
	return func(req *Request) error {
		for key, vv := range h.GetHeader() {
			for _, v := range vv {
				if err := HasHeader(key, v)(req); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// MatchQuery expects the request URL's query to contain every parameter
// encoded by q, with the same values in the same order.
func MatchQuery(q QueryEncoder) Expectation {
	return func(req *Request) error {
		want, err := url.ParseQuery(q.QueryEncode())
		if err != nil {
			return &testError{code: errExpectQuery, err: err}
		}
		got := req.URL.Query()
		for key, vv := range want {
			if e := compare.Compare(got[key], vv); e != nil {
				return &testError{code: errExpectQuery, hkey: key, want: strings.Join(vv, ","), err: e}
			}
		}
		return nil
	}
}

// MatchJSON expects the request's body to be json data that matches v, see
// MatchObject for the semantics of the match.
func MatchJSON(v interface{}) Expectation {
	return func(req *Request) error {
		got, err := req.JSON()
		if err != nil {
			return &testError{code: errExpectBody, err: err}
		}
		if err := MatchObject(got, v); err != nil {
			return &testError{code: errExpectBody, err: err}
		}
		return nil
	}
}

// MatchBody expects the request's body to be equivalent to the contents of
// the given Body, as determined by the Body's CompareContent method.
func MatchBody(b Body) Expectation {
	return func(req *Request) error {
		if err := b.CompareContent(bytes.NewReader(req.Body)); err != nil {
			return &testError{code: errExpectBody, err: err}
		}
		return nil
	}
}

// MatchObject reports whether the json value got matches want. Both values
// are normalized to their generic json form (maps, slices, float64, string,
// bool, nil) before they are compared.
//
// An object matches if every member of the wanted object is present in the
// got object, and matches; members present only in got are ignored. An array
// matches if it has the same length as the wanted array and its elements match
// element-wise. Any other value matches if it is equal to the wanted value.
func MatchObject(got, want interface{}) error {
	g, err := normalize(got)
	if err != nil {
		return err
	}
	w, err := normalize(want)
	if err != nil {
		return err
	}

	var errs mismatchList
	matchValue("$", g, w, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// normalize returns v in its generic json form. Maps and slices always go
// through the round trip since they may hold non-float numbers, e.g. the
// ints decoded from yaml.
func normalize(v interface{}) (interface{}, error) {
	switch v.(type) {
	case nil, bool, float64, string:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchValue(path string, got, want interface{}, errs *mismatchList) {
	switch w := want.(type) {
	case map[string]interface{}:
		g, ok := got.(map[string]interface{})
		if !ok {
			*errs = append(*errs, mismatch{path, got, want, "not an object"})
			return
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			gv, ok := g[k]
			if !ok {
				*errs = append(*errs, mismatch{path + "." + k, nil, w[k], "missing"})
				continue
			}
			matchValue(path+"."+k, gv, w[k], errs)
		}
	case []interface{}:
		g, ok := got.([]interface{})
		if !ok {
			*errs = append(*errs, mismatch{path, got, want, "not an array"})
			return
		}
		if len(g) != len(w) {
			*errs = append(*errs, mismatch{path, len(g), len(w), "array length"})
			return
		}
		for i := range w {
			matchValue(fmt.Sprintf("%s[%d]", path, i), g[i], w[i], errs)
		}
	default:
		if err := compare.Compare(got, want); err != nil {
			*errs = append(*errs, mismatch{path, got, want, ""})
		}
	}
}

type mismatch struct {
	path      string
	got, want interface{}
	reason    string
}

func (m mismatch) String() string {
	if m.reason != "" {
		return fmt.Sprintf("%s: %s, got=%v, want=%v", m.path, m.reason, m.got, m.want)
	}
	return fmt.Sprintf("%s: got=%v, want=%v", m.path, m.got, m.want)
}

type mismatchList []mismatch

func (list mismatchList) Error() string {
	lines := make([]string, len(list))
	for i, m := range list {
		lines[i] = " - " + m.String()
	}
	return strings.Join(lines, "\n")
}
