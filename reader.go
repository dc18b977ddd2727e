package splunkd

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NodeKind identifies the kind of markup node a Reader is positioned on.
type NodeKind int

// The node kinds a Reader can report. NodeNone means the reader is past the
// end of the document or has not read anything yet.
const (
	NodeNone NodeKind = iota
	NodeStart
	NodeEnd
	NodeText
	NodeComment
	NodeProcInst
	NodeDirective
)

func (k NodeKind) String() string {
	switch k {
	case NodeNone:
		return "none"
	case NodeStart:
		return "start element"
	case NodeEnd:
		return "end element"
	case NodeText:
		return "text"
	case NodeComment:
		return "comment"
	case NodeProcInst:
		return "processing instruction"
	case NodeDirective:
		return "directive"
	}
	return "unknown"
}

// Reader is a forward-only cursor over an XML token stream. It wraps an
// xml.Decoder and adds the handful of operations the feed parser needs:
// skipping to the document element, requiring attributes, reading converted
// element content, and iterating same-named siblings. Element names are
// matched on their local part so the reader works whether or not the feed
// declares its extension namespaces.
//
// A Reader is consumed by exactly one logical parse; it is not safe for
// concurrent use.
type Reader struct {
	d    *xml.Decoder
	tok  xml.Token
	kind NodeKind
}

// NewReader creates a Reader consuming tokens from r. The cursor starts
// before the first token; call Next or AdvanceToDocumentElement to begin.
func NewReader(r io.Reader) *Reader {
	return &Reader{d: xml.NewDecoder(r)}
}

// Next advances the cursor to the next token. It returns io.EOF at the end
// of the document, after which the cursor reports NodeNone. Malformed markup,
// including a document truncated mid-element, surfaces as a format error.
func (r *Reader) Next() error {
	tok, err := r.d.Token()
	if err != nil {
		r.tok, r.kind = nil, NodeNone
		if err == io.EOF {
			return io.EOF
		}
		if serr, ok := err.(*xml.SyntaxError); ok {
			return formatErrorf("malformed document on line %d: %v", serr.Line, serr.Msg)
		}
		return errors.Wrap(err, "reading token")
	}
	r.tok = xml.CopyToken(tok)
	switch r.tok.(type) {
	case xml.StartElement:
		r.kind = NodeStart
	case xml.EndElement:
		r.kind = NodeEnd
	case xml.CharData:
		r.kind = NodeText
	case xml.Comment:
		r.kind = NodeComment
	case xml.ProcInst:
		r.kind = NodeProcInst
	case xml.Directive:
		r.kind = NodeDirective
	}
	return nil
}

// next advances like Next but treats end-of-document as a normal position
// (NodeNone) rather than an error. Used after consuming an end tag, where the
// document may legitimately be over.
func (r *Reader) next() error {
	err := r.Next()
	if err == io.EOF {
		return nil
	}
	return err
}

// Kind returns the kind of the current node.
func (r *Reader) Kind() NodeKind { return r.kind }

// Name returns the local name of the current start or end element, or "".
func (r *Reader) Name() string {
	switch t := r.tok.(type) {
	case xml.StartElement:
		return t.Name.Local
	case xml.EndElement:
		return t.Name.Local
	}
	return ""
}

// Text returns the character data of the current text node, or "".
func (r *Reader) Text() string {
	if t, ok := r.tok.(xml.CharData); ok {
		return string(t)
	}
	return ""
}

// Attr returns the value of the named attribute on the current start
// element, matching on the attribute's local name.
func (r *Reader) Attr(name string) (string, bool) {
	t, ok := r.tok.(xml.StartElement)
	if !ok {
		return "", false
	}
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// RequireAttr returns the value of the named attribute on the current start
// element, failing with a format error if it is absent.
func (r *Reader) RequireAttr(name string) (string, error) {
	v, ok := r.Attr(name)
	if !ok {
		return "", formatErrorf("element '%v' is missing required attribute '%v'", r.Name(), name)
	}
	return v, nil
}

// Expect fails with a format error unless the cursor is on a node of the
// given kind and, when name is non-empty, with the given name.
func (r *Reader) Expect(kind NodeKind, name string) error {
	if r.kind != kind || (name != "" && r.Name() != name) {
		return formatErrorf("expected %v '%v', got %v '%v'", kind, name, r.kind, r.Name())
	}
	return nil
}

// AdvanceToDocumentElement skips the document prologue and positions the
// cursor on the document element. It returns false if the document contains
// no elements at all, and a format error if the document element's name does
// not match.
func (r *Reader) AdvanceToDocumentElement(name string) (bool, error) {
	for {
		err := r.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch r.kind {
		case NodeStart:
			if r.Name() != name {
				return false, formatErrorf("expected document element '%v', got '%v'", name, r.Name())
			}
			return true, nil
		case NodeText:
			if strings.TrimSpace(r.Text()) != "" {
				return false, formatErrorf("unexpected text before document element: '%v'", r.Text())
			}
		}
		// comments, processing instructions and directives are prologue
	}
}

// ReadElementContent reads the text content of the current element, applies
// conv to it, consumes the end tag, and advances past it. Child elements
// inside the content are a format error; this is for scalar elements only.
func (r *Reader) ReadElementContent(conv Converter) (interface{}, error) {
	if err := r.Expect(NodeStart, ""); err != nil {
		return nil, err
	}
	name := r.Name()
	var sb strings.Builder
	for {
		if err := r.Next(); err != nil {
			return nil, errors.Wrapf(err, "reading content of '%v'", name)
		}
		switch r.kind {
		case NodeText:
			sb.WriteString(r.Text())
		case NodeEnd:
			v, err := conv.Convert(sb.String())
			if err != nil {
				return nil, errors.Wrapf(err, "element '%v'", name)
			}
			return v, r.next()
		case NodeStart:
			return nil, formatErrorf("unexpected element '%v' inside scalar element '%v'", r.Name(), name)
		}
		// comments are ignored
	}
}

// ReadString reads the current element's text content as a string,
// consuming the end tag.
func (r *Reader) ReadString() (string, error) {
	v, err := r.ReadElementContent(StringConverter{})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Skip consumes the current element and everything inside it, and advances
// past its end tag.
func (r *Reader) Skip() error {
	if err := r.Expect(NodeStart, ""); err != nil {
		return err
	}
	if err := r.d.Skip(); err != nil {
		return errors.Wrapf(err, "skipping element '%v'", r.Name())
	}
	return r.next()
}

// EachChild invokes fn once per sibling element named name, starting at the
// current cursor position. fn must consume its whole element, leaving the
// cursor past the element's end tag. Iteration stops at the first
// non-matching sibling or at the enclosing end tag, leaving the cursor there.
func (r *Reader) EachChild(name string, fn func() error) error {
	for {
		switch r.kind {
		case NodeStart:
			if r.Name() != name {
				return nil
			}
			if err := fn(); err != nil {
				return err
			}
		case NodeEnd, NodeNone:
			return nil
		case NodeText:
			if strings.TrimSpace(r.Text()) != "" {
				return formatErrorf("unexpected text '%v' between '%v' elements", r.Text(), name)
			}
			if err := r.next(); err != nil {
				return err
			}
		default:
			if err := r.next(); err != nil {
				return err
			}
		}
	}
}
