package httptype

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/frk/httpmock"
	"github.com/frk/tagutil"
)

// Params returns a ParamSetter that substitutes a pattern's placeholders with
// the values of the fields of the struct v. The placeholder of a field can be
// set with the "param" tag, and the "omitempty" option can be used to leave
// the placeholder of a zero valued field as is.
//
// Unlike httpmock.Params, placeholders that have no corresponding field are
// left in the pattern.
//
// Params panics if v is not a struct or a pointer to a struct.
func Params(v interface{}) httpmock.ParamSetter {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		panic("httpmock/httptype.Params: invalid argument type")
	}
	return paramsSetter{v: v, rv: rv}
}

type paramsSetter struct {
	v  interface{}
	rv reflect.Value
}

func (ps paramsSetter) SetParams(pattern string) (path string) {
	m := make(map[string]string)
	convertStructToMap(ps.rv, m)

	var i, j int

	for {
		if i = strings.IndexByte(pattern, '{'); i > -1 {
			if j = strings.IndexByte(pattern[i:], '}'); j > -1 {
				j += i
				if v, ok := m[pattern[i+1:j]]; ok {
					path += pattern[:i] + v
				} else {
					path += pattern[:j+1]
				}
				pattern = pattern[j+1:]
				continue
			}
		}
		break
	}
	return path + pattern
}

func convertStructToMap(s reflect.Value, m map[string]string) {
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
			convertStructToMap(f, m)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		tag := tagutil.New(string(sf.Tag))
		if tag.Contains("param", "-") {
			continue
		}
		if tag.Contains("param", "omitempty") && f.IsZero() {
			continue
		}
		key := tag.First("param")
		if len(key) < 1 {
			key = sf.Name
		}

		switch k := f.Kind(); k {
		case reflect.Bool:
			m[key] = strconv.FormatBool(f.Bool())
		case reflect.String:
			m[key] = f.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			m[key] = strconv.FormatInt(f.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			m[key] = strconv.FormatUint(f.Uint(), 10)
		case reflect.Float32:
			m[key] = strconv.FormatFloat(f.Float(), 'f', -1, 32)
		case reflect.Float64:
			m[key] = strconv.FormatFloat(f.Float(), 'f', -1, 64)
		}
	}
}
