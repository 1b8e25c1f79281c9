package httptype

import (
	"reflect"
	"strings"

	"github.com/frk/form"
	"github.com/frk/httpmock"
)

// Query returns a QueryEncoder that encodes the struct v using github.com/frk/form
// with "query" as the tag key.
//
// Query panics if v is not a struct or a pointer to a struct.
func Query(v interface{}) httpmock.QueryEncoder {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		panic("httpmock/httptype.Query: invalid argument type")
	}
	return queryEncoder{v: v}
}

type queryEncoder struct {
	v interface{}
}

func (qe queryEncoder) QueryEncode() string {
	var b strings.Builder
	if err := form.NewEncoder(&b).WithTagKey("query").Encode(qe.v); err != nil {
		panic("httpmock/httptype.QueryEncode: " + err.Error())
	}
	return b.String()
}
