package httpmock

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/frk/compare"
)

func readallString(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

type menuItem struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type store struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Parent *store   `json:"parent,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func Test_Body_ContentType(t *testing.T) {
	tests := []struct {
		body Body
		want string
	}{
		{JSON(nil), jsonContentType},
		{JSONFunc(func() interface{} { return nil }), jsonContentType},
		{Text(""), textContentType},
		{Raw("image/png", nil), "image/png"},
	}

	for _, tt := range tests {
		if got := tt.body.ContentType(); got != tt.want {
			t.Errorf("%T: got %q, want %q", tt.body, got, tt.want)
		}
	}
}

func Test_Body_Value(t *testing.T) {
	veggie := &menuItem{1, "Veggie", 0.0038}

	tests := []struct {
		body Body
		want interface{}
	}{
		{JSON(veggie), veggie},
		{JSON([]string{"Lehi", "Provo"}), []string{"Lehi", "Provo"}},
		{JSONFunc(func() interface{} { return 42 }), 42},
		{Text("Oops"), "Oops"},
		{Raw("text/html", []byte("<h1>")), []byte("<h1>")},
	}

	for _, tt := range tests {
		if e := compare.Compare(tt.body.Value(), tt.want); e != nil {
			t.Errorf("%T: %v", tt.body, e)
		}
	}
}

func Test_Body_Reader(t *testing.T) {
	tests := []struct {
		name    string
		body    Body
		want    string
		wantErr bool
	}{{
		name: "json_struct",
		body: JSON(menuItem{1, "Veggie", 0.0038}),
		want: `{"id":1,"title":"Veggie","price":0.0038}`,
	}, {
		name: "json_nested",
		body: JSON(store{ID: 5, Name: "Provo", Parent: &store{ID: 2, Name: "pizzaPocket"}}),
		want: `{"id":5,"name":"Provo","parent":{"id":2,"name":"pizzaPocket"}}`,
	}, {
		name: "json_slice",
		body: JSON([]store{{ID: 4, Name: "SLC"}}),
		want: `[{"id":4,"name":"SLC"}]`,
	}, {
		name: "json_nil",
		body: JSON(nil),
		want: `null`,
	}, {
		name:    "json_unsupported",
		body:    JSON(func() {}),
		wantErr: true,
	}, {
		name: "text",
		body: Text("store deleted"),
		want: "store deleted",
	}, {
		name: "raw",
		body: Raw("application/octet-stream", []byte{'p', 'i', 'e'}),
		want: "pie",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.body.Reader()
			if tt.wantErr {
				if err == nil {
					t.Error("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := readallString(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_Body_CompareContent(t *testing.T) {
	tests := []struct {
		name string
		body Body
		data string
		want error
	}{{
		name: "json_same",
		body: JSON(menuItem{1, "Veggie", 0.0038}),
		data: `{"id":1,"title":"Veggie","price":0.0038}`,
	}, {
		// members that aren't expected by the body are OK
		name: "json_extra_members",
		body: JSON(menuItem{1, "Veggie", 0.0038}),
		data: `{"image":"pizza1.png","id":1,"title":"Veggie","price":0.0038,"description":"A garden of delight"}`,
	}, {
		name: "json_pointer_to_slice",
		body: JSON(&[]*store{{ID: 4, Name: "SLC"}, {ID: 5, Name: "Provo"}}),
		data: `[{"id":4,"name":"SLC","totalRevenue":0},{"id":5,"name":"Provo","totalRevenue":0}]`,
	}, {
		name: "json_mismatch",
		body: JSON(store{ID: 5, Name: "Provo"}),
		data: `{"id":5,"name":"Orem"}`,
		want: &testError{code: errBodyMismatch, err: errors.New("<dummy>")},
	}, {
		name: "json_array_length",
		body: JSON([]int{1, 2}),
		data: `[1,2,3]`,
		want: &testError{code: errBodyMismatch, err: errors.New("<dummy>")},
	}, {
		name: "json_invalid",
		body: JSON(store{Name: "SLC"}),
		data: `{"name":"SLC",}`,
		want: &testError{code: errBodyDecode, err: errors.New("<dummy>")},
	}, {
		name: "json_empty",
		body: JSON(store{Name: "SLC"}),
		data: ``,
		want: &testError{code: errBodyDecode, err: errors.New("<dummy>")},
	}, {
		name: "jsonfunc",
		body: JSONFunc(func() interface{} { return []string{"Veggie"} }),
		data: `["Veggie"]`,
	}, {
		name: "text_same",
		body: Text("logout successful"),
		data: "logout successful",
	}, {
		name: "text_mismatch",
		body: Text("logout successful"),
		data: "logout failed",
		want: &testError{code: errBodyMismatch, err: errors.New("<dummy>")},
	}, {
		name: "raw_same",
		body: Raw("image/png", []byte("\x89PNG")),
		data: "\x89PNG",
	}, {
		name: "raw_mismatch",
		body: Raw("image/png", []byte("\x89PNG")),
		data: "GIF8",
		want: &testError{code: errBodyMismatch, err: errors.New("<dummy>")},
	}}

	cmp := compare.Config{ObserveFieldTag: "cmp"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.body.CompareContent(strings.NewReader(tt.data))
			if e := cmp.Compare(err, tt.want); e != nil {
				t.Error(e)
			}
		})
	}
}

func Test_JSONFunc_Reader(t *testing.T) {
	items := []string{"Veggie"}
	body := JSONFunc(func() interface{} { return items })

	items = append(items, "Pepperoni")
	r, err := body.Reader()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := readallString(r), `["Veggie","Pepperoni"]`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
