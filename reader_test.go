package splunkd

import (
	"io"
	"strings"
	"testing"
)

func TestAdvanceToDocumentElement(t *testing.T) {
	rd := NewReader(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>
<!-- prologue comment -->
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	ok, err := rd.AdvanceToDocumentElement("feed")
	if err != nil {
		t.Fatalf("advancing: %v", err)
	}
	if !ok {
		t.Fatal("expected to find the document element")
	}
	if rd.Kind() != NodeStart || rd.Name() != "feed" {
		t.Fatalf("cursor on %v '%v'", rd.Kind(), rd.Name())
	}
}

func TestAdvanceToDocumentElementEmpty(t *testing.T) {
	rd := NewReader(strings.NewReader(`<?xml version="1.0"?>
<!-- nothing here -->`))
	ok, err := rd.AdvanceToDocumentElement("feed")
	if err != nil {
		t.Fatalf("advancing: %v", err)
	}
	if ok {
		t.Fatal("expected no document element")
	}
}

func TestAdvanceToDocumentElementWrongRoot(t *testing.T) {
	rd := NewReader(strings.NewReader(`<entry/>`))
	_, err := rd.AdvanceToDocumentElement("feed")
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
	if !strings.Contains(err.Error(), "entry") {
		t.Fatalf("error should name the actual root: %v", err)
	}
}

func TestNextMalformedMarkup(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "truncated", doc: `<root><child>`},
		{name: "mismatched close", doc: `<root></other>`},
		{name: "stray close", doc: `</root>`},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			rd := NewReader(strings.NewReader(tst.doc))
			var err error
			for err == nil {
				err = rd.Next()
			}
			if err == io.EOF {
				t.Fatal("expected a format error, got clean EOF")
			}
			if !IsFormatError(err) {
				t.Fatalf("expected a format error, got %v", err)
			}
			if rd.Kind() != NodeNone {
				t.Fatalf("cursor should report none after a decoder error, got %v", rd.Kind())
			}
		})
	}
}

func TestRequireAttr(t *testing.T) {
	rd := NewReader(strings.NewReader(`<key name="disabled">0</key>`))
	if _, err := rd.AdvanceToDocumentElement("key"); err != nil {
		t.Fatal(err)
	}
	v, err := rd.RequireAttr("name")
	if err != nil || v != "disabled" {
		t.Fatalf("RequireAttr: %q, %v", v, err)
	}
	_, err = rd.RequireAttr("type")
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
	if !strings.Contains(err.Error(), "type") {
		t.Fatalf("error should name the missing attribute: %v", err)
	}
}

func TestReadElementContent(t *testing.T) {
	rd := NewReader(strings.NewReader(`<root><count>42</count><next/></root>`))
	if _, err := rd.AdvanceToDocumentElement("root"); err != nil {
		t.Fatal(err)
	}
	if err := rd.Next(); err != nil {
		t.Fatal(err)
	}
	v, err := rd.ReadElementContent(IntConverter{})
	if err != nil {
		t.Fatalf("reading count: %v", err)
	}
	if v.(int64) != 42 {
		t.Fatalf("count = %v", v)
	}
	// the cursor must now be on the sibling
	if rd.Kind() != NodeStart || rd.Name() != "next" {
		t.Fatalf("cursor on %v '%v', expected start of 'next'", rd.Kind(), rd.Name())
	}
}

func TestReadElementContentRejectsChildren(t *testing.T) {
	rd := NewReader(strings.NewReader(`<title>hello <b>world</b></title>`))
	if _, err := rd.AdvanceToDocumentElement("title"); err != nil {
		t.Fatal(err)
	}
	_, err := rd.ReadString()
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
}

func TestExpectMismatch(t *testing.T) {
	rd := NewReader(strings.NewReader(`<feed/>`))
	if _, err := rd.AdvanceToDocumentElement("feed"); err != nil {
		t.Fatal(err)
	}
	err := rd.Expect(NodeEnd, "entry")
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
	for _, want := range []string{"end element", "entry", "start element", "feed"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err.Error(), want)
		}
	}
}

func TestSkip(t *testing.T) {
	rd := NewReader(strings.NewReader(`<root><junk><deeply><nested/>text</deeply></junk><keep/></root>`))
	if _, err := rd.AdvanceToDocumentElement("root"); err != nil {
		t.Fatal(err)
	}
	if err := rd.Next(); err != nil {
		t.Fatal(err)
	}
	if err := rd.Skip(); err != nil {
		t.Fatalf("skipping: %v", err)
	}
	if rd.Kind() != NodeStart || rd.Name() != "keep" {
		t.Fatalf("cursor on %v '%v', expected start of 'keep'", rd.Kind(), rd.Name())
	}
}

func TestEachChild(t *testing.T) {
	rd := NewReader(strings.NewReader(`<list>
		<item>a</item>
		<item>b</item>
		<other/>
	</list>`))
	if _, err := rd.AdvanceToDocumentElement("list"); err != nil {
		t.Fatal(err)
	}
	if err := rd.Next(); err != nil {
		t.Fatal(err)
	}
	var got []string
	err := rd.EachChild("item", func() error {
		s, err := rd.ReadString()
		if err != nil {
			return err
		}
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("iterating: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected items: %v", got)
	}
	// iteration stops on the first non-matching sibling
	if rd.Kind() != NodeStart || rd.Name() != "other" {
		t.Fatalf("cursor on %v '%v', expected start of 'other'", rd.Kind(), rd.Name())
	}
}

func TestEachChildRejectsStrayText(t *testing.T) {
	rd := NewReader(strings.NewReader(`<list><item>a</item>stray<item>b</item></list>`))
	if _, err := rd.AdvanceToDocumentElement("list"); err != nil {
		t.Fatal(err)
	}
	if err := rd.Next(); err != nil {
		t.Fatal(err)
	}
	err := rd.EachChild("item", func() error {
		_, err := rd.ReadString()
		return err
	})
	if err == nil || !IsFormatError(err) {
		t.Fatalf("expected a format error, got %v", err)
	}
}
