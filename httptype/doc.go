// Package httptype provides struct based implementations of the httpmock
// HeaderGetter, ParamSetter, and QueryEncoder interfaces.
//
// The struct's exported fields are mapped to header keys, pattern placeholders,
// and query parameters, by default using the field's name, or the name
// specified in the field's "header", "param", or "query" tag.
package httptype
