package httptype

import (
	"net/http"
	"reflect"

	"github.com/frk/httpmock"
	"github.com/frk/tagutil"
)

// Header returns a HeaderGetter that converts the struct v into an http.Header.
// The header key of a field can be set with the "header" tag, a field with the
// tag "-" is ignored. Fields of kind string, and slices or arrays of strings,
// are supported, as well as embedded structs. Empty strings are omitted.
//
// Header panics if v is not a struct or a pointer to a struct.
func Header(v interface{}) httpmock.HeaderGetter {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		panic("httpmock/httptype.Header: invalid argument type")
	}
	return headerGetter{v: v, rv: rv}
}

type headerGetter struct {
	v  interface{}
	rv reflect.Value
}

func (hg headerGetter) GetHeader() http.Header {
	h := make(http.Header)
	convertStructToHeader(hg.rv, h)
	return h
}

func convertStructToHeader(s reflect.Value, h http.Header) {
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f, sf := s.Field(i), t.Field(i)
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}

		if sf.Anonymous && f.Kind() == reflect.Struct {
			// Converting embedded struct fields is supported,
			// converting normal struct fields is not.
			convertStructToHeader(f, h)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		tag := tagutil.New(string(sf.Tag))
		if tag.Contains("header", "-") {
			continue
		}
		key := tag.First("header")
		if len(key) < 1 {
			key = sf.Name
		}
		key = http.CanonicalHeaderKey(key)

		switch f.Kind() {
		case reflect.String:
			if val := f.String(); val != "" {
				h[key] = append(h[key], val)
			}
		case reflect.Slice, reflect.Array:
			if f.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < f.Len(); j++ {
				if val := f.Index(j).String(); val != "" {
					h[key] = append(h[key], val)
				}
			}
		}
	}
}
