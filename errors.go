package httpmock

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
)

var (
	// ErrRouteHandled is returned by the Route's methods when the route
	// has already been resolved by a preceding call to one of those methods.
	ErrRouteHandled = errors.New("httpmock: route is already handled")
	// ErrUnmatched is wrapped by the error recorded for a request that
	// reached the end of its fallback chain with no network to fall back to.
	ErrUnmatched = errors.New("httpmock: unmatched request")
	// ErrUnresolved is wrapped by the error recorded for a request whose
	// handler returned without fulfilling, continuing, aborting, or falling back.
	ErrUnresolved = errors.New("httpmock: route left unresolved")
)

type errorList []error

func (list errorList) Error() (s string) {
	for _, e := range list {
		s += e.Error()
	}
	return s
}

func (list errorList) Unwrap() []error { return list }

type testError struct {
	code errorCode
	// The intercepted request, or nil.
	req *Request
	// The pattern of the route that was handling the request, or empty.
	pattern string
	// The name of the scenario and step, or empty.
	scenario, step string
	// The original error, or nil.
	err error `cmp:"+"`
	// The header key in case of errExpectHeader, or the query
	// parameter key in case of errExpectQuery, or empty.
	hkey string
	// The expected value in case of errExpectMethod, errExpectHeader, or errExpectQuery.
	want string
}

func (e *testError) Error() string {
	sb := new(strings.Builder)
	if err := output_templates.ExecuteTemplate(sb, e.code.name(), e); err != nil {
		panic(err)
	}
	return sb.String()
}

func (e *testError) Unwrap() error {
	switch e.code {
	case errRouteUnmatched:
		return ErrUnmatched
	case errRouteUnresolved:
		return ErrUnresolved
	}
	return e.err
}

// IsAssertion reports whether err, or any error in its tree, is the
// result of a failed expectation about an intercepted request.
func IsAssertion(err error) bool {
	if te, ok := err.(*testError); ok && te.code.isAssertion() {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return IsAssertion(x.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if IsAssertion(e) {
				return true
			}
		}
	}
	return false
}

func (e *testError) Request() string {
	if e.req != nil {
		return e.req.String()
	}
	return ""
}

func (e *testError) RequestMethod() string {
	if e.req != nil {
		return e.req.Method
	}
	return ""
}

func (e *testError) RequestBody() string {
	if e.req != nil && len(e.req.Body) > 0 {
		return string(e.req.Body)
	}
	return ""
}

func (e *testError) Pattern() string {
	return e.pattern
}

func (e *testError) Scenario() string {
	return e.scenario
}

func (e *testError) Step() string {
	return e.step
}

func (e *testError) HeaderKey() string {
	return e.hkey
}

func (e *testError) GotHeader() string {
	if e.req != nil {
		return fmt.Sprintf("%+v", e.req.Header[http.CanonicalHeaderKey(e.hkey)])
	}
	return ""
}

func (e *testError) GotQuery() string {
	if e.req != nil {
		return fmt.Sprintf("%+v", e.req.URL.Query()[e.hkey])
	}
	return ""
}

func (e *testError) Want() string {
	return e.want
}

func (e *testError) Err() (out string) {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// StripColor removes the terminal color sequences, with which the
// package's error messages are formatted, from s.
func StripColor(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

type errorCode uint8

func (e errorCode) name() string { return fmt.Sprintf("error_template_%d", e) }

func (e errorCode) isAssertion() bool {
	return e == errExpectMethod || e == errExpectHeader || e == errExpectBody || e == errExpectQuery
}

const (
	_ errorCode = iota
	errBodyDecode
	errBodyMismatch
	errExpectMethod
	errExpectHeader
	errExpectBody
	errExpectQuery
	errRouteHandler
	errRouteUnresolved
	errRouteUnmatched
	errFulfillEncode
	errScenarioSetup
	errScenarioTeardown
	errScenarioOpen
	errScenarioStep
	errScenarioRoute
	errStateInit
	errStateCheck
	errStateCleanup
)

var output_template_string = `
{{ define "` + errBodyDecode.name() + `" -}}
failed to decode body: {{R .Err}}
{{- end }}

{{ define "` + errBodyMismatch.name() + `" -}}
{{.Err}}
{{- end }}

{{ define "` + errExpectMethod.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" expectation failed.
Request.Method got={{R .RequestMethod}}, want={{C .Want}}
 - Request: {{Y .Request}}
{{ end }}

{{ define "` + errExpectHeader.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" expectation failed.
Request.Header["{{.HeaderKey}}"] got={{R .GotHeader}}, want={{C .Want}}
 - Request: {{Y .Request}}
{{ end }}

{{ define "` + errExpectBody.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" expectation failed.
Request.Body mismatch:
{{.Err}}
 - Request: {{Y .Request}}
{{- with .RequestBody }}
 - Request.Body: {{Y .}}
{{ end }}
{{ end }}

{{ define "` + errExpectQuery.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" expectation failed.
Request.URL.Query["{{.HeaderKey}}"] got={{R .GotQuery}}, want={{C .Want}}
 - Request: {{Y .Request}}
{{ end }}

{{ define "` + errRouteHandler.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" handler failed.
 - Request: {{Y .Request}}
 - {{R .Err}}
{{ end }}

{{ define "` + errRouteUnresolved.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" handler returned without resolving the route.
 - Request: {{Y .Request}}
{{ end }}

{{ define "` + errRouteUnmatched.name() + `" -}}
{{Wb "frk/httpmock"}}: no route fulfilled the request and the network is not available.
 - Request: {{Y .Request}}
{{ end }}

{{ define "` + errFulfillEncode.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Pattern}}" failed to encode the response.
 - Request: {{Y .Request}}
 - {{R .Err}}
{{ end }}

{{ define "` + errScenarioSetup.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" setup returned an error.
 - {{R .Err}}
{{ end }}

{{ define "` + errScenarioTeardown.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" teardown returned an error.
 - {{R .Err}}
{{ end }}

{{ define "` + errScenarioOpen.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" driver failed to open a page.
 - {{R .Err}}
{{ end }}

{{ define "` + errScenarioStep.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" step "{{.Step}}" failed.
 - {{R .Err}}
{{ end }}

{{ define "` + errScenarioRoute.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" halted after step "{{.Step}}", a route failed.
{{.Err}}
{{- end }}

{{ define "` + errStateInit.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" StateHandler.Init returned an error.
 - {{R .Err}}
{{ end }}

{{ define "` + errStateCheck.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" StateHandler.Check returned an error.
 - {{R .Err}}
{{ end }}

{{ define "` + errStateCleanup.name() + `" -}}
{{Wb "frk/httpmock"}}: "{{.Scenario}}" StateHandler.Cleanup returned an error.
 - {{R .Err}}
{{ end }}

{{ define "scenario_report" -}}
{{G "Note"}}: Passed {{.Passed}} scenario(s).
{{- with .Skipped}}
{{Y "Warning"}}: Skipped {{.}} scenario(s).
{{ end }}
{{- with .Failed}}
{{R "Error"}}: Failed {{.}} scenario(s).
{{ end }}
{{ end }}
` // `

var output_templates = template.Must(template.New("t").Funcs(template.FuncMap{
	// red color HI (terminal)
	"R": func(v ...string) string { return getcolor("\033[0;91m", v) },
	// green color HI (terminal)
	"G": func(v ...string) string { return getcolor("\033[0;92m", v) },
	// yellow color HI (terminal)
	"Y": func(v ...string) string { return getcolor("\033[0;93m", v) },
	// cyan color HI (terminal)
	"C": func(v ...string) string { return getcolor("\033[0;96m", v) },
	// white color HI (terminal)
	"Wb": func(v ...string) string { return getcolor("\033[1;97m", v) },
}).Parse(output_template_string))

func getcolor(c string, v []string) string {
	if len(v) > 0 {
		return fmt.Sprintf("%s%v\033[0m", c, stringsStringer(v))
	}
	return c
}

type stringsStringer []string

func (s stringsStringer) String() string {
	return strings.Join([]string(s), "")
}
