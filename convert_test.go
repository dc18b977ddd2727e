package splunkd

import (
	"fmt"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func TestConverters(t *testing.T) {
	tests := []struct {
		conv  Converter
		field string
		exp   interface{}
		bad   bool
	}{
		{conv: StringConverter{}, field: "anything at all", exp: "anything at all"},
		{conv: IntConverter{}, field: "-42", exp: int64(-42)},
		{conv: IntConverter{Bits: 8}, field: "300", bad: true},
		{conv: IntConverter{}, field: "1.5", bad: true},
		{conv: UintConverter{}, field: "42", exp: uint64(42)},
		{conv: UintConverter{}, field: "-1", bad: true},
		{conv: FloatConverter{}, field: "2.5", exp: 2.5},
		{conv: FloatConverter{}, field: "two", bad: true},
		{conv: BoolConverter{}, field: "1", exp: true},
		{conv: BoolConverter{}, field: "0", exp: false},
		{conv: BoolConverter{}, field: "TRUE", exp: true},
		{conv: BoolConverter{}, field: " false ", exp: false},
		{conv: BoolConverter{}, field: "yes", bad: true},
		{conv: URLConverter{}, field: "https://localhost:8089/services", exp: mustURL("https://localhost:8089/services")},
		{conv: URLConverter{}, field: "://nope", bad: true},
		{conv: VersionConverter{}, field: "6.2.1", exp: Version{6, 2, 1}},
		{conv: VersionConverter{}, field: "6", exp: Version{6}},
		{conv: VersionConverter{}, field: "6.x", bad: true},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d_%s", i, test.field), func(t *testing.T) {
			got, err := test.conv.Convert(test.field)
			if test.bad {
				if err == nil {
					t.Fatalf("expected an error, got %#v", got)
				}
				if !IsFormatError(err) {
					t.Fatalf("expected a format error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("converting %q: %v", test.field, err)
			}
			if !reflect.DeepEqual(got, test.exp) {
				t.Fatalf("converting %q: got %#v, expected %#v", test.field, got, test.exp)
			}
		})
	}
}

func mustURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func TestTimeConverter(t *testing.T) {
	tests := []struct {
		field string
		exp   time.Time
		bad   bool
	}{
		{field: "2018-10-12T14:07:17.000-07:00",
			exp: time.Date(2018, 10, 12, 14, 7, 17, 0, time.FixedZone("", -7*3600))},
		{field: "2018-10-12T14:07:17-07:00",
			exp: time.Date(2018, 10, 12, 14, 7, 17, 0, time.FixedZone("", -7*3600))},
		{field: "2018-10-12T14:07:17",
			exp: time.Date(2018, 10, 12, 14, 7, 17, 0, time.UTC)},
		{field: "1539378437", exp: time.Unix(1539378437, 0).UTC()},
		{field: "last tuesday", bad: true},
	}
	for _, test := range tests {
		got, err := TimeConverter{}.Convert(test.field)
		if test.bad {
			if err == nil || !IsFormatError(err) {
				t.Fatalf("converting %q: expected a format error, got %v", test.field, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("converting %q: %v", test.field, err)
		}
		if !got.(time.Time).Equal(test.exp) {
			t.Fatalf("converting %q: got %v, expected %v", test.field, got, test.exp)
		}
	}
}

func TestEnumConverter(t *testing.T) {
	conv := NewEnumConverter("color",
		map[string]interface{}{"red": 1, "green": 2},
		map[string]string{"crimson": "red", "nonexistent": "blue"})

	if v, err := conv.Convert("RED"); err != nil || v != 1 {
		t.Fatalf("RED: %v, %v", v, err)
	}
	if v, err := conv.Convert(" crimson "); err != nil || v != 1 {
		t.Fatalf("crimson: %v, %v", v, err)
	}
	_, err := conv.Convert("blue")
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
	if got := err.Error(); got != "'blue' is not a recognized color value" {
		t.Fatalf("unexpected error text: %v", got)
	}
}
