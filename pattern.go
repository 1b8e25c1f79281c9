package httpmock

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// A Matcher reports whether a request URL is matched by a route.
type Matcher interface {
	Match(u *url.URL) bool
	// String returns the matcher's pattern, used for logging and reporting.
	String() string
}

// Glob returns a Matcher that matches the full request URL against the
// given glob pattern. The glob syntax is as follows:
//
//   - matches any sequence of characters except "/"
//     **    matches any sequence of characters including "/", when it forms
//     a whole path segment ("/**/") it also matches zero segments
//     {a,b} matches either one of the comma separated alternatives
//     \c    matches the character c literally
//
// Every other character, including "?", matches itself. For example
// the pattern "*/**/api/order/menu" matches "http://localhost:5173/api/order/menu".
//
// Glob panics if the pattern is invalid, see ParseGlob.
func Glob(pattern string) Matcher {
	m, err := ParseGlob(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseGlob is like Glob but returns an error if the pattern has an
// unterminated or nested alternation group.
func ParseGlob(pattern string) (Matcher, error) {
	re, err := globToRegexp(pattern)
	if err != nil {
		return nil, err
	}
	return globMatcher{pattern: pattern, re: re}, nil
}

// Regexp returns a Matcher that matches the full request URL against re.
func Regexp(re *regexp.Regexp) Matcher {
	return regexpMatcher{re}
}

// MatchFunc returns a Matcher that uses f to match the request URL.
// The name is used only for logging and reporting.
func MatchFunc(name string, f func(u *url.URL) bool) Matcher {
	return funcMatcher{name: name, f: f}
}

type globMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func (m globMatcher) Match(u *url.URL) bool { return m.re.MatchString(u.String()) }
func (m globMatcher) String() string        { return m.pattern }

type regexpMatcher struct{ re *regexp.Regexp }

func (m regexpMatcher) Match(u *url.URL) bool { return m.re.MatchString(u.String()) }
func (m regexpMatcher) String() string        { return m.re.String() }

type funcMatcher struct {
	name string
	f    func(u *url.URL) bool
}

func (m funcMatcher) Match(u *url.URL) bool { return m.f(u) }
func (m funcMatcher) String() string        { return m.name }

// globToRegexp converts the glob pattern into an anchored regular expression.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')

	var inGroup bool
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		case '*':
			before := byte(0)
			if i > 0 {
				before = glob[i-1]
			}
			stars := 1
			for i+1 < len(glob) && glob[i+1] == '*' {
				stars++
				i++
			}
			after := byte(0)
			if i+1 < len(glob) {
				after = glob[i+1]
			}

			deep := stars > 1 && (before == '/' || before == 0) && (after == '/' || after == 0)
			if deep {
				// the trailing slash, if any, is consumed by the group
				b.WriteString(`((?:[^/]*(?:/|$))*)`)
				if after == '/' {
					i++
				}
			} else if stars > 1 {
				b.WriteString(`(.*)`)
			} else {
				b.WriteString(`([^/]*)`)
			}
		case '{':
			if inGroup {
				return nil, fmt.Errorf("httpmock: nested alternation in glob %q", glob)
			}
			inGroup = true
			b.WriteString(`(?:`)
		case '}':
			if inGroup {
				inGroup = false
				b.WriteByte(')')
			} else {
				b.WriteString(`\}`)
			}
		case ',':
			if inGroup {
				b.WriteByte('|')
			} else {
				b.WriteByte(',')
			}
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	if inGroup {
		return nil, fmt.Errorf("httpmock: unterminated alternation in glob %q", glob)
	}

	b.WriteByte('$')
	return regexp.Compile(b.String())
}
