package splunkd

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// contentRenames rewrites irregular dotted wire keys before path splitting.
// The table is applied only to top-level keys of a content dict. It mirrors
// schema quirks on the server side: keys that are conceptually boolean flags
// get an is_enabled leaf so they nest next to their sibling settings, and a
// few keys are regrouped under a different parent. This is fixture data to be
// kept in sync with the server's schema, not parser logic.
var contentRenames = map[string]string{
	"alert.suppress":           "alert.suppress.is_enabled",
	"alert.track":              "alert.track.is_enabled",
	"auto_summarize":           "auto_summarize.is_enabled",
	"display.visualizations":   "display.visualizations.is_enabled",
	"eai:acl.perms":            "eai:acl.permissions",
	"request.ui_dispatch_app":  "request.ui_dispatch.app",
	"request.ui_dispatch_view": "request.ui_dispatch.view",
}

// normalizeKey folds a wire key segment into the SDK's property naming:
// a leading run of underscores is preserved verbatim, and after it, runs of
// '_', '.' and '-' are removed with the following character upper-cased.
// Keys with no leading underscores also get their first character
// upper-cased, so "check_for_updates" becomes "CheckForUpdates" while
// "_raw" and "__private" keep their names.
func normalizeKey(key string) string {
	i := 0
	for i < len(key) && key[i] == '_' {
		i++
	}
	var b strings.Builder
	b.WriteString(key[:i])
	upper := i == 0
	for _, r := range key[i:] {
		switch r {
		case '_', '.', '-':
			upper = true
		default:
			if upper {
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func splitKeyPath(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || r == ':'
	})
}

// insertPath splits a dotted wire key into a path, descends or creates nested
// dicts for every segment but the last, and stores v under the normalized
// leaf segment.
func insertPath(d *Dict, wireKey string, v Value) error {
	segs := splitKeyPath(wireKey)
	if len(segs) == 0 {
		return formatErrorf("key '%v' has no usable segments", wireKey)
	}
	cur := d
	for _, seg := range segs[:len(segs)-1] {
		var err error
		cur, err = cur.child(normalizeKey(seg))
		if err != nil {
			return errors.Wrapf(err, "descending key path '%v'", wireKey)
		}
	}
	return cur.Set(normalizeKey(segs[len(segs)-1]), v)
}

// parseValue parses the recursively structured value held by the element the
// cursor is on. An empty element is a nil value; a nested dict marker parses
// as a *Dict, a nested list marker as a List, and anything else as a Scalar
// of the element's raw text. The cursor ends up past the element's end tag.
func parseValue(rd *Reader, level int) (Value, error) {
	if err := rd.Expect(NodeStart, ""); err != nil {
		return nil, err
	}
	name := rd.Name()
	var text strings.Builder
	for {
		if err := rd.Next(); err != nil {
			return nil, errors.Wrapf(err, "reading value of '%v'", name)
		}
		switch rd.Kind() {
		case NodeText:
			text.WriteString(rd.Text())
		case NodeStart:
			if strings.TrimSpace(text.String()) != "" {
				return nil, formatErrorf("unexpected text '%v' before nested value in '%v'", text.String(), name)
			}
			var v Value
			var err error
			switch rd.Name() {
			case "dict":
				v, err = parseDict(rd, level)
			case "list":
				v, err = parseList(rd, level)
			default:
				return nil, formatErrorf("unexpected element '%v' inside value '%v'", rd.Name(), name)
			}
			if err != nil {
				return nil, err
			}
			return v, finishValue(rd, name)
		case NodeEnd:
			s := text.String()
			if strings.TrimSpace(s) == "" {
				return nil, rd.next()
			}
			return Scalar(s), rd.next()
		}
	}
}

// finishValue consumes the enclosing value element's end tag after a nested
// dict or list has been parsed, tolerating interleaved whitespace.
func finishValue(rd *Reader, name string) error {
	for {
		switch rd.Kind() {
		case NodeEnd:
			return rd.next()
		case NodeText:
			if strings.TrimSpace(rd.Text()) != "" {
				return formatErrorf("unexpected text '%v' after nested value in '%v'", rd.Text(), name)
			}
		case NodeStart:
			return formatErrorf("unexpected second element '%v' inside value '%v'", rd.Name(), name)
		case NodeNone:
			return formatErrorf("unexpected end of document inside '%v'", name)
		}
		if err := rd.next(); err != nil {
			return err
		}
	}
}

// parseDict parses a dict marker element into a *Dict. The level-0 rename
// table applies only to keys of the outermost dict of a content value.
func parseDict(rd *Reader, level int) (*Dict, error) {
	d := NewDict()
	if err := rd.Next(); err != nil {
		return nil, errors.Wrap(err, "entering dict")
	}
	err := rd.EachChild("key", func() error {
		key, err := rd.RequireAttr("name")
		if err != nil {
			return err
		}
		if level == 0 {
			if renamed, ok := contentRenames[key]; ok {
				key = renamed
			}
		}
		v, err := parseValue(rd, level+1)
		if err != nil {
			return errors.Wrapf(err, "key '%v'", key)
		}
		return insertPath(d, key, v)
	})
	if err != nil {
		return nil, err
	}
	if err := rd.Expect(NodeEnd, "dict"); err != nil {
		return nil, err
	}
	return d, rd.next()
}

// parseList parses a list marker element into a List.
func parseList(rd *Reader, level int) (List, error) {
	l := List{}
	if err := rd.Next(); err != nil {
		return nil, errors.Wrap(err, "entering list")
	}
	err := rd.EachChild("item", func() error {
		v, err := parseValue(rd, level+1)
		if err != nil {
			return errors.Wrapf(err, "list item %d", len(l))
		}
		l = append(l, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := rd.Expect(NodeEnd, "list"); err != nil {
		return nil, err
	}
	return l, rd.next()
}
