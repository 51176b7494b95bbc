package mapper

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type person struct {
	Name      string
	Age       int
	StartDate time.Time
}

func TestMapPerson(t *testing.T) {
	// Setup
	src := map[string]any{
		"Name":      "Foo",
		"Age":       json.Number("50"),
		"StartDate": "2009-12-18T10:02:23",
	}

	// Exercise
	var actual person
	err := New(Options{}).Map(src, &actual)

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	expected := person{
		Name:      "Foo",
		Age:       50,
		StartDate: time.Date(2009, 12, 18, 10, 2, 23, 0, time.UTC),
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("unexpected result: expected=%+v, actual=%+v", expected, actual)
	}
}

type account struct {
	UserID  int
	Display string `json:"display_name"`
	Email   string `rest:"mail"`
	Skipped string `json:"-"`
}

func TestMapNameResolution(t *testing.T) {
	testCases := []struct {
		title    string
		src      map[string]any
		expected account
	}{
		{
			title:    "Exact Go name",
			src:      map[string]any{"UserID": 1},
			expected: account{UserID: 1},
		},
		{
			title:    "Snake case",
			src:      map[string]any{"user_id": 2},
			expected: account{UserID: 2},
		},
		{
			title:    "Dash case",
			src:      map[string]any{"user-id": 3},
			expected: account{UserID: 3},
		},
		{
			title:    "Loose match",
			src:      map[string]any{"USER_ID": 4},
			expected: account{UserID: 4},
		},
		{
			title:    "Json tag rename",
			src:      map[string]any{"display_name": "x"},
			expected: account{Display: "x"},
		},
		{
			title:    "Variant of the rename",
			src:      map[string]any{"displayName": "y"},
			expected: account{Display: "y"},
		},
		{
			title:    "Rest tag rename",
			src:      map[string]any{"mail": "a@example.com"},
			expected: account{Email: "a@example.com"},
		},
		{
			title:    "Skipped field and unknown keys",
			src:      map[string]any{"Skipped": "z", "unknown": true},
			expected: account{},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			var actual account
			if err := New(Options{}).Map(tt.src, &actual); err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if actual != tt.expected {
				t.Errorf("unexpected result: expected=%+v, actual=%+v", tt.expected, actual)
			}
		})
	}
}

type optionals struct {
	Count   *int
	When    *time.Time
	ID      *uuid.UUID
	Amount  *big.Float
	Enabled *bool
}

func TestMapNilPointers(t *testing.T) {
	testCases := []struct {
		title string
		src   map[string]any
	}{
		{title: "Missing keys", src: map[string]any{}},
		{title: "Null values", src: map[string]any{"Count": nil, "When": nil, "ID": nil, "Amount": nil, "Enabled": nil}},
		{title: "Empty strings", src: map[string]any{"Count": "", "When": "", "ID": "", "Amount": "", "Enabled": " "}},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			var actual optionals
			if err := New(Options{}).Map(tt.src, &actual); err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if actual.Count != nil || actual.When != nil || actual.ID != nil || actual.Amount != nil || actual.Enabled != nil {
				t.Errorf("expected all nil: actual=%+v", actual)
			}
		})
	}
}

func TestMapPointersWithValues(t *testing.T) {
	// Setup
	src := map[string]any{
		"Count":   json.Number("7"),
		"When":    "2020-01-02T03:04:05Z",
		"ID":      "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"Amount":  "12.50",
		"Enabled": "true",
	}

	// Exercise
	var actual optionals
	err := New(Options{}).Map(src, &actual)

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if actual.Count == nil || *actual.Count != 7 {
		t.Errorf("unexpected count: actual=%v", actual.Count)
	}
	if actual.When == nil || !actual.When.Equal(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected time: actual=%v", actual.When)
	}
	if actual.ID == nil || *actual.ID != uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") {
		t.Errorf("unexpected id: actual=%v", actual.ID)
	}
	if actual.Amount == nil || actual.Amount.Text('f', 2) != "12.50" {
		t.Errorf("unexpected amount: actual=%v", actual.Amount)
	}
	if actual.Enabled == nil || !*actual.Enabled {
		t.Errorf("unexpected enabled: actual=%v", actual.Enabled)
	}
}

type color int

const (
	red color = iota
	green
	blue
)

func init() {
	RegisterEnum(map[string]color{"Red": red, "Green": green, "Blue": blue})
}

type level int8

type mask uint8

func init() {
	RegisterEnum(map[string]level{"Low": 1, "High": 100})
	RegisterEnum(map[string]mask{"None": 0, "All": 255})
}

type palette struct {
	Primary color
	Others  []color
}

func TestMapEnum(t *testing.T) {
	t.Run("Names match case-insensitively", func(t *testing.T) {
		var actual palette
		src := map[string]any{"Primary": "GREEN", "Others": []any{"red", json.Number("2")}}
		if err := New(Options{}).Map(src, &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		expected := palette{Primary: green, Others: []color{red, blue}}
		if !reflect.DeepEqual(actual, expected) {
			t.Errorf("unexpected result: expected=%+v, actual=%+v", expected, actual)
		}
	})

	t.Run("Unknown name fails", func(t *testing.T) {
		var actual palette
		err := New(Options{}).Map(map[string]any{"Primary": "Purple"}, &actual)
		var enumErr *EnumError
		if !errors.As(err, &enumErr) {
			t.Fatalf("expected EnumError: err=%v", err)
		}
		if enumErr.Value != "Purple" || enumErr.Type != reflect.TypeOf(red) {
			t.Errorf("unexpected enum error: %+v", enumErr)
		}
		var mapErr *Error
		if !errors.As(err, &mapErr) || mapErr.Path != "$.Primary" {
			t.Errorf("unexpected mapping error: err=%v", err)
		}
	})

	t.Run("Numbers must fit the enum type", func(t *testing.T) {
		testCases := []struct {
			title  string
			src    any
			target any
		}{
			{title: "Too large for int8", src: "300", target: new(level)},
			{title: "Too small for int8", src: json.Number("-129"), target: new(level)},
			{title: "Negative for uint8", src: "-1", target: new(mask)},
			{title: "Too large for uint8", src: 256.0, target: new(mask)},
		}
		for _, tt := range testCases {
			t.Run(tt.title, func(t *testing.T) {
				if err := New(Options{}).Map(tt.src, tt.target); err == nil {
					t.Errorf("expected overflow error: value=%v", reflect.ValueOf(tt.target).Elem().Interface())
				}
			})
		}
	})

	t.Run("Numbers within range are kept", func(t *testing.T) {
		var l level
		var m mask
		if err := New(Options{}).Map("-128", &l); err != nil || l != -128 {
			t.Errorf("unexpected level: value=%d, err=%v", l, err)
		}
		if err := New(Options{}).Map("all", &m); err != nil || m != 255 {
			t.Errorf("unexpected mask: value=%d, err=%v", m, err)
		}
	})
}

func TestMapCollections(t *testing.T) {
	t.Run("Nil entries are preserved", func(t *testing.T) {
		var actual []*int
		src := []any{json.Number("1"), nil, json.Number("3")}
		if err := New(Options{}).Map(src, &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		if len(actual) != 3 || actual[1] != nil || *actual[0] != 1 || *actual[2] != 3 {
			t.Errorf("unexpected list: actual=%v", actual)
		}
	})

	t.Run("Map keys are coerced", func(t *testing.T) {
		var actual map[int]string
		src := map[string]any{"1": "a", "2": "b"}
		if err := New(Options{}).Map(src, &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		expected := map[int]string{1: "a", 2: "b"}
		if !reflect.DeepEqual(actual, expected) {
			t.Errorf("unexpected map: expected=%v, actual=%v", expected, actual)
		}
	})

	t.Run("Non-string keys from yaml are normalized", func(t *testing.T) {
		var actual map[string]int
		src := map[any]any{1: 10, "two": 20}
		if err := New(Options{}).Map(src, &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		expected := map[string]int{"1": 10, "two": 20}
		if !reflect.DeepEqual(actual, expected) {
			t.Errorf("unexpected map: expected=%v, actual=%v", expected, actual)
		}
	})

	t.Run("Bytes from base64", func(t *testing.T) {
		var actual []byte
		if err := New(Options{}).Map("AQID", &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		if !reflect.DeepEqual(actual, []byte{1, 2, 3}) {
			t.Errorf("unexpected bytes: actual=%v", actual)
		}
	})

	t.Run("Untyped target keeps the tree", func(t *testing.T) {
		var actual any
		src := map[string]any{"a": []any{"x"}}
		if err := New(Options{}).Map(src, &actual); err != nil {
			t.Fatalf("unexpected error: err=%+v", err)
		}
		if !reflect.DeepEqual(actual, src) {
			t.Errorf("unexpected value: expected=%v, actual=%v", src, actual)
		}
	})
}

func TestMapScalars(t *testing.T) {
	testCases := []struct {
		title    string
		opts     Options
		src      any
		target   any
		expected any
	}{
		{title: "Duration clock", src: "01:30:00", target: new(time.Duration), expected: 90 * time.Minute},
		{title: "Duration with days", src: "1.02:00:00", target: new(time.Duration), expected: 26 * time.Hour},
		{title: "Duration iso", src: "P1DT2H", target: new(time.Duration), expected: 26 * time.Hour},
		{title: "Duration go syntax", src: "1h30m", target: new(time.Duration), expected: 90 * time.Minute},
		{title: "Duration empty", src: "", target: new(time.Duration), expected: time.Duration(0)},
		{title: "Uuid empty", src: "", target: new(uuid.UUID), expected: uuid.Nil},
		{title: "Float with culture", opts: Options{Culture: Culture{DecimalSeparator: ",", GroupSeparator: "."}}, src: "1.234,5", target: new(float64), expected: 1234.5},
		{title: "Float with invariant grouping", src: "1,234.5", target: new(float64), expected: 1234.5},
		{title: "Int from whole float", src: 3.0, target: new(int), expected: 3},
		{title: "Largest exact int64 float", src: float64(1 << 62), target: new(int64), expected: int64(1 << 62)},
		{title: "Uint from string", src: "8", target: new(uint16), expected: uint16(8)},
		{title: "Bool from string", src: "false", target: new(bool), expected: false},
		{title: "String from number", src: json.Number("1.5"), target: new(string), expected: "1.5"},
		{title: "Time with explicit layout", opts: Options{DateFormat: "02/01/2006"}, src: "18/12/2009", target: new(time.Time), expected: time.Date(2009, 12, 18, 0, 0, 0, 0, time.UTC)},
		{title: "Time in configured location", opts: Options{Location: time.FixedZone("X", 3600)}, src: "2009-12-18 10:00:00", target: new(time.Time), expected: time.Date(2009, 12, 18, 10, 0, 0, 0, time.FixedZone("X", 3600))},
		{title: "Time from legacy json date", src: "/Date(1000)/", target: new(time.Time), expected: time.Unix(1, 0).UTC()},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			if err := New(tt.opts).Map(tt.src, tt.target); err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			actual := reflect.ValueOf(tt.target).Elem().Interface()
			if at, ok := actual.(time.Time); ok {
				if !at.Equal(tt.expected.(time.Time)) {
					t.Errorf("unexpected time: expected=%v, actual=%v", tt.expected, at)
				}
				return
			}
			if !reflect.DeepEqual(actual, tt.expected) {
				t.Errorf("unexpected value: expected=%#v, actual=%#v", tt.expected, actual)
			}
		})
	}
}

type line struct {
	Qty int
}

type cart struct {
	Lines []line
}

func TestMapErrorPath(t *testing.T) {
	// Setup
	src := map[string]any{"lines": []any{map[string]any{"qty": "1"}, map[string]any{"qty": "abc"}}}

	// Exercise
	var actual cart
	err := New(Options{}).Map(src, &actual)

	// Verify
	var mapErr *Error
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected mapping error: err=%v", err)
	}
	if mapErr.Path != "$.Lines[1].Qty" {
		t.Errorf("unexpected path: expected=%s, actual=%s", "$.Lines[1].Qty", mapErr.Path)
	}
	if mapErr.Type != reflect.TypeOf(0) || mapErr.Value != "abc" {
		t.Errorf("unexpected error detail: %+v", mapErr)
	}
	if !strings.Contains(err.Error(), "$.Lines[1].Qty") {
		t.Errorf("error message should name the path: %s", err.Error())
	}
}

type page struct {
	Items []int `rest:",items"`
	Total int
}

func TestMapItemsField(t *testing.T) {
	var actual page
	if err := New(Options{}).Map([]any{json.Number("1"), json.Number("2")}, &actual); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	expected := page{Items: []int{1, 2}}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("unexpected result: expected=%+v, actual=%+v", expected, actual)
	}
}

type Base struct {
	ID int
}

type withEmbedded struct {
	*Base
	Name string
}

func TestMapEmbedded(t *testing.T) {
	var actual withEmbedded
	if err := New(Options{}).Map(map[string]any{"id": 9, "name": "n"}, &actual); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if actual.Base == nil || actual.ID != 9 || actual.Name != "n" {
		t.Errorf("unexpected result: actual=%+v", actual)
	}
}

func TestMapRootElement(t *testing.T) {
	// Setup
	src := map[string]any{"meta": map[string]any{}, "result": map[string]any{"data": map[string]any{"Name": "x"}}}

	// Exercise
	var actual person
	err := New(Options{RootElement: "data"}).Map(src, &actual)

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if actual.Name != "x" {
		t.Errorf("unexpected name: expected=x, actual=%s", actual.Name)
	}
}

func TestMapRejectsNonPointer(t *testing.T) {
	var actual person
	if err := New(Options{}).Map(map[string]any{}, actual); err == nil {
		t.Errorf("expected error for non-pointer destination")
	}
}

func TestMapScalars_Errors(t *testing.T) {
	testCases := []struct {
		title  string
		opts   Options
		src    any
		target any
	}{
		{title: "Float of 2^63 into int64", src: 9223372036854775808.0, target: new(int64)},
		{title: "Number string of 2^63 into int64", src: json.Number("9223372036854775808"), target: new(int64)},
		{title: "Fraction into int", src: 1.5, target: new(int)},
		{title: "Grouped integer", src: "1,234", target: new(int)},
		{title: "Decimal comma into int", src: "1,5", target: new(int)},
		{title: "Grouped integer with culture", opts: Options{Culture: Culture{DecimalSeparator: ",", GroupSeparator: "."}}, src: "1.234", target: new(int)},
		{title: "Overflowing int8", src: "128", target: new(int8)},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			if err := New(tt.opts).Map(tt.src, tt.target); err == nil {
				t.Errorf("expected error: value=%v", reflect.ValueOf(tt.target).Elem().Interface())
			}
		})
	}
}
