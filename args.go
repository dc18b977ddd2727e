package splunkd

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Argument is one serialized wire pair, ready for query or form encoding.
// Multi-valued parameters repeat the name across several Arguments.
type Argument struct {
	Name  string
	Value string
}

func (a Argument) String() string { return a.Name + "=" + a.Value }

// Parameter holders are plain structs whose exported fields carry an `args`
// tag declaring the wire name and ordering key:
//
//	type PagingArgs struct {
//		Count  *int    `args:"count,pos=1,default=30"`
//		Offset *int    `args:"offset,pos=2,default=0"`
//		Search *string `args:"search,pos=3"`
//	}
//
// Fields must be pointers (nil means unset) or slices (each element becomes
// its own Argument). Options: pos=N (required), default=V, required,
// emitdflt (emit even when the value equals the default). A field tagged
// `args:"-"` is excluded. The descriptor table for a holder type is built on
// first use and cached for the life of the process; declaration mistakes
// surface as a ConfigError the first time the type is seen, not per call.

type fieldSpec struct {
	name       string
	pos        int
	index      int
	required   bool
	emitDflt   bool
	dflt       string
	hasDflt    bool
	collection bool
	format     func(reflect.Value) (string, error)
	setDflt    func(reflect.Value) // allocates and assigns the declared default
}

type holderSpec struct {
	fields []fieldSpec
}

var (
	holderMu sync.RWMutex
	holders  = map[reflect.Type]*holderSpec{}
)

var (
	enumMu    sync.RWMutex
	enumNames = map[reflect.Type]map[interface{}]string{}
)

// RegisterEnumNames declares the wire names for an enum-like named type. The
// map is keyed by the typed constants themselves; an entry's string is the
// name put on the wire, which lets a value carry an alias differing from its
// Go constant. Formatting a value outside the registered set fails at
// serialization time. Call this from an init function; an empty or
// mixed-type map panics.
func RegisterEnumNames(names map[interface{}]string) {
	if len(names) == 0 {
		panic("RegisterEnumNames: empty name table")
	}
	var typ reflect.Type
	for v := range names {
		t := reflect.TypeOf(v)
		if typ == nil {
			typ = t
		} else if t != typ {
			panic(fmt.Sprintf("RegisterEnumNames: mixed types %v and %v in one table", typ, t))
		}
	}
	enumMu.Lock()
	enumNames[typ] = names
	enumMu.Unlock()
}

func enumNamesFor(t reflect.Type) (map[interface{}]string, bool) {
	enumMu.RLock()
	names, ok := enumNames[t]
	enumMu.RUnlock()
	return names, ok
}

// specFor returns the cached descriptor table for t, building it under the
// write lock on first use. Concurrent first callers may race to the lock but
// converge on one cached table.
func specFor(t reflect.Type) (*holderSpec, error) {
	holderMu.RLock()
	hs, ok := holders[t]
	holderMu.RUnlock()
	if ok {
		return hs, nil
	}
	holderMu.Lock()
	defer holderMu.Unlock()
	if hs, ok := holders[t]; ok {
		return hs, nil
	}
	hs, err := buildSpec(t)
	if err != nil {
		return nil, err
	}
	holders[t] = hs
	return hs, nil
}

func buildSpec(t reflect.Type) (*holderSpec, error) {
	hs := &holderSpec{}
	type orderKey struct {
		pos  int
		name string
	}
	seen := map[orderKey]bool{}
	for i := 0; i < t.NumField(); i++ {
		fs, err := parseFieldSpec(t, i)
		if err != nil {
			return nil, err
		}
		if fs == nil {
			continue
		}
		key := orderKey{fs.pos, fs.name}
		if seen[key] {
			return nil, &ConfigError{Type: t.String(), Field: t.Field(i).Name,
				msg: fmt.Sprintf("duplicate (pos, name) (%v, %v)", fs.pos, fs.name)}
		}
		seen[key] = true
		hs.fields = append(hs.fields, *fs)
	}
	sort.Slice(hs.fields, func(i, j int) bool {
		a, b := &hs.fields[i], &hs.fields[j]
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		return a.name < b.name
	})
	return hs, nil
}

func parseFieldSpec(t reflect.Type, i int) (*fieldSpec, error) {
	f := t.Field(i)
	if f.PkgPath != "" {
		return nil, nil // unexported
	}
	tag, ok := f.Tag.Lookup("args")
	if !ok {
		return nil, &ConfigError{Type: t.String(), Field: f.Name,
			msg: "missing args tag (tag with `args:\"-\"` to exclude a field)"}
	}
	if tag == "-" {
		return nil, nil
	}
	parts := strings.Split(tag, ",")
	fs := &fieldSpec{name: parts[0], index: i, pos: -1}
	if fs.name == "" {
		return nil, &ConfigError{Type: t.String(), Field: f.Name, msg: "missing wire name"}
	}
	for _, opt := range parts[1:] {
		switch {
		case opt == "required":
			fs.required = true
		case opt == "emitdflt":
			fs.emitDflt = true
		case strings.HasPrefix(opt, "pos="):
			n, err := strconv.Atoi(opt[len("pos="):])
			if err != nil {
				return nil, &ConfigError{Type: t.String(), Field: f.Name,
					msg: fmt.Sprintf("bad ordering key '%v'", opt)}
			}
			fs.pos = n
		case strings.HasPrefix(opt, "default="):
			fs.dflt = opt[len("default="):]
			fs.hasDflt = true
		default:
			return nil, &ConfigError{Type: t.String(), Field: f.Name,
				msg: fmt.Sprintf("unknown option '%v'", opt)}
		}
	}
	if fs.pos < 0 {
		return nil, &ConfigError{Type: t.String(), Field: f.Name, msg: "missing ordering key (pos=N)"}
	}

	var elem reflect.Type
	switch f.Type.Kind() {
	case reflect.Ptr:
		elem = f.Type.Elem()
	case reflect.Slice:
		fs.collection = true
		elem = f.Type.Elem()
	default:
		return nil, &ConfigError{Type: t.String(), Field: f.Name,
			msg: "field must be a pointer (nullable scalar) or a slice (collection)"}
	}
	if fs.collection && fs.hasDflt {
		return nil, &ConfigError{Type: t.String(), Field: f.Name,
			msg: "collection fields cannot declare a default"}
	}

	fs.format = formatterFor(elem, t.String(), f.Name)

	if fs.hasDflt {
		setter, err := setterFor(elem, fs.dflt)
		if err != nil {
			return nil, &ConfigError{Type: t.String(), Field: f.Name,
				msg: fmt.Sprintf("default '%v': %v", fs.dflt, err)}
		}
		idx := fs.index
		fs.setDflt = func(holder reflect.Value) {
			fv := holder.Field(idx)
			if !fv.IsNil() {
				return
			}
			p := reflect.New(elem)
			setter(p.Elem())
			fv.Set(p)
		}
	}
	return fs, nil
}

// formatterFor resolves the wire formatter for a field's value type.
// Registered enum types get a name-table formatter which rejects values
// outside the declared set; primitives use strconv; anything else falls back
// to fmt.
func formatterFor(t reflect.Type, holder, field string) func(reflect.Value) (string, error) {
	if names, ok := enumNamesFor(t); ok {
		return func(v reflect.Value) (string, error) {
			s, ok := names[v.Interface()]
			if !ok {
				return "", formatErrorf("value '%v' of field %v.%v is outside the declared %v set",
					v.Interface(), holder, field, t)
			}
			return s, nil
		}
	}
	switch t.Kind() {
	case reflect.String:
		return func(v reflect.Value) (string, error) { return v.String(), nil }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value) (string, error) { return strconv.FormatInt(v.Int(), 10), nil }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value) (string, error) { return strconv.FormatUint(v.Uint(), 10), nil }
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) (string, error) { return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil }
	case reflect.Bool:
		return func(v reflect.Value) (string, error) { return strconv.FormatBool(v.Bool()), nil }
	}
	return func(v reflect.Value) (string, error) {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
		return fmt.Sprintf("%v", v.Interface()), nil
	}
}

// setterFor builds the assignment used by ApplyDefaults, validating the
// declared default against the field's type up front.
func setterFor(t reflect.Type, dflt string) (func(reflect.Value), error) {
	if names, ok := enumNamesFor(t); ok {
		for val, name := range names {
			if name == dflt {
				rv := reflect.ValueOf(val)
				return func(v reflect.Value) { v.Set(rv) }, nil
			}
		}
		return nil, errors.Errorf("not in the declared %v set", t)
	}
	switch t.Kind() {
	case reflect.String:
		return func(v reflect.Value) { v.SetString(dflt) }, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(dflt, 10, 64)
		if err != nil {
			return nil, errors.Errorf("not an integer")
		}
		return func(v reflect.Value) { v.SetInt(n) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(dflt, 10, 64)
		if err != nil {
			return nil, errors.Errorf("not an unsigned integer")
		}
		return func(v reflect.Value) { v.SetUint(n) }, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(dflt, 64)
		if err != nil {
			return nil, errors.Errorf("not a float")
		}
		return func(v reflect.Value) { v.SetFloat(f) }, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(dflt)
		if err != nil {
			return nil, errors.Errorf("not a boolean")
		}
		return func(v reflect.Value) { v.SetBool(b) }, nil
	}
	return nil, errors.Errorf("type %v does not support declared defaults", t)
}

func derefHolder(holder interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(holder)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, errors.New("nil parameter holder")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("parameter holder must be a struct, got %v", v.Kind())
	}
	return v, nil
}

// Enumerate serializes holder's fields into wire Arguments in the holder
// type's declared (pos, name) order. Unset optional fields are skipped; an
// unset required field is a MissingParamError. A set field whose value
// equals its declared default is suppressed unless tagged emitdflt.
// Collection fields emit one Argument per element with no per-element
// default suppression.
func Enumerate(holder interface{}) ([]Argument, error) {
	v, err := derefHolder(holder)
	if err != nil {
		return nil, err
	}
	hs, err := specFor(v.Type())
	if err != nil {
		return nil, err
	}
	args := make([]Argument, 0, len(hs.fields))
	for i := range hs.fields {
		fs := &hs.fields[i]
		fv := v.Field(fs.index)
		if fv.IsNil() {
			if fs.required {
				return nil, &MissingParamError{Param: fs.name}
			}
			continue
		}
		if fs.collection {
			for j := 0; j < fv.Len(); j++ {
				s, err := fs.format(fv.Index(j))
				if err != nil {
					return nil, err
				}
				args = append(args, Argument{Name: fs.name, Value: s})
			}
			continue
		}
		s, err := fs.format(fv.Elem())
		if err != nil {
			return nil, err
		}
		if fs.hasDflt && s == fs.dflt && !fs.emitDflt {
			continue
		}
		args = append(args, Argument{Name: fs.name, Value: s})
	}
	return args, nil
}

// ApplyDefaults populates every unset field of holder that declares a
// default, so a freshly constructed holder serializes its defaults unless
// they are overridden. holder must be a pointer to the holder struct.
func ApplyDefaults(holder interface{}) error {
	v := reflect.ValueOf(holder)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.New("ApplyDefaults needs a non-nil pointer to a holder struct")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return errors.Errorf("parameter holder must be a struct, got %v", v.Kind())
	}
	hs, err := specFor(v.Type())
	if err != nil {
		return err
	}
	for i := range hs.fields {
		if hs.fields[i].setDflt != nil {
			hs.fields[i].setDflt(v)
		}
	}
	return nil
}

// Describe renders every field of holder in declared order as
// "name=value; ...", printing null for unset fields and never suppressing
// defaults. It is a diagnostic rendering, not a wire format.
func Describe(holder interface{}) string {
	v, err := derefHolder(holder)
	if err != nil {
		return err.Error()
	}
	hs, err := specFor(v.Type())
	if err != nil {
		return err.Error()
	}
	parts := make([]string, 0, len(hs.fields))
	for i := range hs.fields {
		fs := &hs.fields[i]
		fv := v.Field(fs.index)
		if fv.IsNil() {
			parts = append(parts, fs.name+"=null")
			continue
		}
		var s string
		if fs.collection {
			elems := make([]string, fv.Len())
			for j := 0; j < fv.Len(); j++ {
				es, err := fs.format(fv.Index(j))
				if err != nil {
					es = fmt.Sprintf("%v", fv.Index(j).Interface())
				}
				elems[j] = es
			}
			s = strings.Join(elems, ",")
		} else {
			s, err = fs.format(fv.Elem())
			if err != nil {
				s = fmt.Sprintf("%v", fv.Elem().Interface())
			}
		}
		parts = append(parts, fs.name+"="+s)
	}
	return strings.Join(parts, "; ")
}
