package splunkd

import (
	"testing"

	"github.com/splunkd/splunkd/test"
)

func TestDictInsertionOrder(t *testing.T) {
	d := NewDict()
	for _, k := range []string{"Zebra", "Apple", "Mango"} {
		test.ErrNil(t, d.Set(k, Scalar(k)), "setting "+k)
	}
	test.MustBe(t, d.Keys(), []string{"Zebra", "Apple", "Mango"}, "keys")
}

func TestDictMerge(t *testing.T) {
	d := NewDict()
	a := NewDict()
	test.ErrNil(t, a.Set("B", Scalar("1")), "setting B")
	test.ErrNil(t, d.Set("A", a), "setting A")
	a2 := NewDict()
	test.ErrNil(t, a2.Set("C", Scalar("2")), "setting C")
	test.ErrNil(t, d.Set("A", a2), "merging A")

	if d.Len() != 1 {
		t.Fatalf("merge should not add a top-level key: %v", d.Keys())
	}
	merged, _ := d.Get("A")
	test.MustBe(t, merged.(*Dict).Keys(), []string{"B", "C"}, "merged keys")
}

func TestDictCollision(t *testing.T) {
	d := NewDict()
	test.ErrNil(t, d.Set("A", Scalar("1")), "setting A")
	if err := d.Set("A", Scalar("2")); err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error for scalar collision, got %v", err)
	}
	if err := d.Set("A", NewDict()); err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error merging a dict into a scalar, got %v", err)
	}
}

func TestDictGetters(t *testing.T) {
	d := NewDict()
	test.ErrNil(t, d.Set("S", Scalar("hello")), "setting S")
	test.ErrNil(t, d.Set("B", Scalar("1")), "setting B")
	test.ErrNil(t, d.Set("N", Scalar(" 42 ")), "setting N")
	test.ErrNil(t, d.Set("L", List{Scalar("x")}), "setting L")

	if s, err := d.GetString("S"); err != nil || s != "hello" {
		t.Fatalf("GetString: %q, %v", s, err)
	}
	if b, err := d.GetBool("B"); err != nil || !b {
		t.Fatalf("GetBool: %v, %v", b, err)
	}
	if n, err := d.GetInt("N"); err != nil || n != 42 {
		t.Fatalf("GetInt: %v, %v", n, err)
	}
	if _, err := d.GetString("missing"); err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error for a missing key, got %v", err)
	}
	if _, err := d.GetString("L"); err == nil {
		t.Fatal("expected an error coercing a list to a string")
	}
	if _, err := d.GetInt("S"); err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error coercing text to an int, got %v", err)
	}
}
