package splunkd

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Message is one server message attached to a feed, e.g. a warning about a
// deprecated endpoint.
type Message struct {
	Severity string
	Text     string
}

// Pagination describes the result window a feed covers. A feed that carries
// no pagination fields reports the zero value.
type Pagination struct {
	ItemsPerPage int
	StartIndex   int
	TotalResults int
}

// Entry is one resource's snapshot, either standalone or inside a feed. It is
// populated by a single parse and must not be modified afterwards.
type Entry struct {
	ID        *url.URL
	Title     string
	Author    string
	Published time.Time
	Updated   time.Time
	Links     map[string]*url.URL
	Content   Value
}

// Feed is a collection response: entries plus pagination, messages and
// feed-level links. Messages is nil when the feed carried no messages block
// at all, and empty but non-nil when the block was present and empty. Like
// Entry, a Feed is populated by a single parse and immutable afterwards.
type Feed struct {
	Title            string
	ID               *url.URL
	Author           string
	GeneratorVersion Version
	Updated          time.Time
	Pagination       Pagination
	Messages         []Message
	Links            map[string]*url.URL
	Entries          []Entry
}

// ReadFeed parses a feed document from r. Any structural problem aborts the
// parse with a format error; no partial feed is returned.
func ReadFeed(r io.Reader) (*Feed, error) {
	rd := NewReader(r)
	ok, err := rd.AdvanceToDocumentElement("feed")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, formatErrorf("empty document, expected a feed")
	}
	return parseFeed(rd)
}

// ReadEntry parses a standalone entry document from r.
func ReadEntry(r io.Reader) (*Entry, error) {
	rd := NewReader(r)
	ok, err := rd.AdvanceToDocumentElement("entry")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, formatErrorf("empty document, expected an entry")
	}
	return parseEntry(rd)
}

// parseFeed consumes a feed element the cursor is on, leaving the cursor on
// the feed's end tag.
func parseFeed(rd *Reader) (*Feed, error) {
	f := &Feed{Links: make(map[string]*url.URL)}
	if err := rd.Next(); err != nil {
		return nil, errors.Wrap(err, "entering feed")
	}
	for {
		switch rd.Kind() {
		case NodeEnd:
			return f, nil
		case NodeNone:
			return nil, formatErrorf("unexpected end of document inside feed")
		case NodeText:
			if strings.TrimSpace(rd.Text()) != "" {
				return nil, formatErrorf("unexpected text '%v' in feed", rd.Text())
			}
			if err := rd.next(); err != nil {
				return nil, err
			}
		case NodeStart:
			if err := parseFeedElement(rd, f); err != nil {
				return nil, err
			}
		default:
			if err := rd.next(); err != nil {
				return nil, err
			}
		}
	}
}

func parseFeedElement(rd *Reader, f *Feed) error {
	switch name := rd.Name(); name {
	case "title":
		s, err := rd.ReadString()
		if err != nil {
			return err
		}
		f.Title = s
	case "id":
		v, err := rd.ReadElementContent(URLConverter{})
		if err != nil {
			return err
		}
		f.ID = v.(*url.URL)
	case "author":
		s, err := parseAuthor(rd)
		if err != nil {
			return err
		}
		f.Author = s
	case "generator":
		raw, err := rd.RequireAttr("version")
		if err != nil {
			return err
		}
		v, err := VersionConverter{}.Convert(raw)
		if err != nil {
			return errors.Wrap(err, "generator version")
		}
		f.GeneratorVersion = v.(Version)
		return rd.Skip()
	case "updated":
		v, err := rd.ReadElementContent(TimeConverter{})
		if err != nil {
			return err
		}
		f.Updated = v.(time.Time)
	case "link":
		return parseLink(rd, f.Links)
	case "entry":
		e, err := parseEntry(rd)
		if err != nil {
			return err
		}
		f.Entries = append(f.Entries, *e)
		// parseEntry leaves the cursor on the entry's end tag
		return rd.next()
	case "messages":
		msgs, err := parseMessages(rd)
		if err != nil {
			return err
		}
		f.Messages = msgs
	case "itemsPerPage":
		n, err := readIntElement(rd)
		if err != nil {
			return err
		}
		f.Pagination.ItemsPerPage = n
	case "startIndex":
		n, err := readIntElement(rd)
		if err != nil {
			return err
		}
		f.Pagination.StartIndex = n
	case "totalResults":
		n, err := readIntElement(rd)
		if err != nil {
			return err
		}
		f.Pagination.TotalResults = n
	default:
		return formatErrorf("unrecognized element '%v' in feed", name)
	}
	return nil
}

// parseEntry consumes an entry element the cursor is on, leaving the cursor
// on the entry's end tag.
func parseEntry(rd *Reader) (*Entry, error) {
	e := &Entry{Links: make(map[string]*url.URL)}
	if err := rd.Next(); err != nil {
		return nil, errors.Wrap(err, "entering entry")
	}
	for {
		switch rd.Kind() {
		case NodeEnd:
			return e, nil
		case NodeNone:
			return nil, formatErrorf("unexpected end of document inside entry")
		case NodeText:
			if strings.TrimSpace(rd.Text()) != "" {
				return nil, formatErrorf("unexpected text '%v' in entry", rd.Text())
			}
			if err := rd.next(); err != nil {
				return nil, err
			}
		case NodeStart:
			if err := parseEntryElement(rd, e); err != nil {
				return nil, err
			}
		default:
			if err := rd.next(); err != nil {
				return nil, err
			}
		}
	}
}

func parseEntryElement(rd *Reader, e *Entry) error {
	switch name := rd.Name(); name {
	case "title":
		s, err := rd.ReadString()
		if err != nil {
			return err
		}
		e.Title = s
	case "id":
		v, err := rd.ReadElementContent(URLConverter{})
		if err != nil {
			return err
		}
		e.ID = v.(*url.URL)
	case "author":
		s, err := parseAuthor(rd)
		if err != nil {
			return err
		}
		e.Author = s
	case "published":
		v, err := rd.ReadElementContent(TimeConverter{})
		if err != nil {
			return err
		}
		e.Published = v.(time.Time)
	case "updated":
		v, err := rd.ReadElementContent(TimeConverter{})
		if err != nil {
			return err
		}
		e.Updated = v.(time.Time)
	case "link":
		return parseLink(rd, e.Links)
	case "content":
		v, err := parseValue(rd, 0)
		if err != nil {
			return errors.Wrap(err, "parsing content")
		}
		e.Content = v
	default:
		return formatErrorf("unrecognized element '%v' in entry", name)
	}
	return nil
}

// parseAuthor reads an author element, which carries either a nested name
// element in the usual Atom shape, or bare text.
func parseAuthor(rd *Reader) (string, error) {
	if err := rd.Next(); err != nil {
		return "", errors.Wrap(err, "entering author")
	}
	var text strings.Builder
	var name string
	for {
		switch rd.Kind() {
		case NodeText:
			text.WriteString(rd.Text())
			if err := rd.next(); err != nil {
				return "", err
			}
		case NodeStart:
			if rd.Name() != "name" {
				return "", formatErrorf("unexpected element '%v' in author", rd.Name())
			}
			s, err := rd.ReadString()
			if err != nil {
				return "", err
			}
			name = s
		case NodeEnd:
			if name == "" {
				name = strings.TrimSpace(text.String())
			}
			return name, rd.next()
		case NodeNone:
			return "", formatErrorf("unexpected end of document in author")
		default:
			if err := rd.next(); err != nil {
				return "", err
			}
		}
	}
}

// parseLink records a link element's relation and target. The last link for
// a given relation wins.
func parseLink(rd *Reader, links map[string]*url.URL) error {
	rel, err := rd.RequireAttr("rel")
	if err != nil {
		return err
	}
	href, err := rd.RequireAttr("href")
	if err != nil {
		return err
	}
	v, err := URLConverter{}.Convert(href)
	if err != nil {
		return errors.Wrapf(err, "link '%v'", rel)
	}
	links[rel] = v.(*url.URL)
	return rd.Skip()
}

// parseMessages reads a messages block. The block may legitimately be empty;
// the returned slice is non-nil either way so callers can tell an empty block
// from an absent one.
func parseMessages(rd *Reader) ([]Message, error) {
	msgs := []Message{}
	if err := rd.Next(); err != nil {
		return nil, errors.Wrap(err, "entering messages")
	}
	err := rd.EachChild("msg", func() error {
		sev, err := rd.RequireAttr("type")
		if err != nil {
			return err
		}
		text, err := rd.ReadString()
		if err != nil {
			return err
		}
		msgs = append(msgs, Message{Severity: sev, Text: strings.TrimSpace(text)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := rd.Expect(NodeEnd, "messages"); err != nil {
		return nil, err
	}
	return msgs, rd.next()
}

func readIntElement(rd *Reader) (int, error) {
	v, err := rd.ReadElementContent(IntConverter{Bits: 32})
	if err != nil {
		return 0, err
	}
	return int(v.(int64)), nil
}
