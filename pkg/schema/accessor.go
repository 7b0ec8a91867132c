package schema

import (
	"fmt"
	"reflect"
)

// Accessor reads and writes one field of a mapped record. The two
// variants are Direct (one handle used for both directions) and
// GetterSetter (separate read and write capabilities that agree on the
// value type by construction).
type Accessor interface {
	// Value reads the field from rec. A nullable field that is absent
	// yields (nil, nil).
	Value(rec any) (any, error)

	// SetValue writes v into the field of rec. A nil v denotes an
	// absent value and is only accepted by nullable fields.
	SetValue(rec any, v any) error

	// Nullable reports whether the field's type can represent an
	// absent value. Pointer-valued fields are nullable.
	Nullable() bool
}

// accessor is the concrete, type-erased form shared by both variants.
type accessor struct {
	value    func(rec any) (any, error)
	setValue func(rec any, v any) error
	nullable bool
}

func (a accessor) Value(rec any) (any, error)  { return a.value(rec) }
func (a accessor) SetValue(rec, v any) error   { return a.setValue(rec, v) }
func (a accessor) Nullable() bool              { return a.nullable }

// Direct builds an accessor from a single field handle: ptr returns the
// address of the field inside the record, and both reads and writes go
// through it.
func Direct[R any, V any](ptr func(r *R) *V) Accessor {
	nullable := isNullableType(reflect.TypeOf((*V)(nil)).Elem())
	return accessor{
		value: func(rec any) (any, error) {
			r, err := recordOf[R](rec)
			if err != nil {
				return nil, err
			}
			return fieldValue(*ptr(r)), nil
		},
		setValue: func(rec any, v any) error {
			r, err := recordOf[R](rec)
			if err != nil {
				return err
			}
			return assignField(ptr(r), v)
		},
		nullable: nullable,
	}
}

// GetterSetter builds an accessor from a separate read and write pair.
// The shared type parameter V guarantees the two agree on value type.
func GetterSetter[R any, V any](get func(r *R) V, set func(r *R, v V)) Accessor {
	nullable := isNullableType(reflect.TypeOf((*V)(nil)).Elem())
	return accessor{
		value: func(rec any) (any, error) {
			r, err := recordOf[R](rec)
			if err != nil {
				return nil, err
			}
			return fieldValue(get(r)), nil
		},
		setValue: func(rec any, v any) error {
			r, err := recordOf[R](rec)
			if err != nil {
				return err
			}
			var field V
			if err := assignField(&field, v); err != nil {
				return err
			}
			set(r, field)
			return nil
		},
		nullable: nullable,
	}
}

// AssignScalar writes a database value into *dst with the same coercion
// rules field accessors use. dst must be a non-nil pointer.
func AssignScalar(dst any, v any) error {
	return assignField(dst, v)
}

// NullableScalar reports whether *dst's type can represent an absent
// value. dst must be a non-nil pointer.
func NullableScalar(dst any) bool {
	return isNullableType(reflect.TypeOf(dst).Elem())
}

// recordOf asserts that rec is a *R.
func recordOf[R any](rec any) (*R, error) {
	r, ok := rec.(*R)
	if !ok {
		return nil, fmt.Errorf("%w: want %T, got %T", ErrTypeNotMapped, r, rec)
	}
	return r, nil
}

// isNullableType reports whether t can represent an absent value.
func isNullableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return t != reflect.TypeOf([]byte(nil)) // []byte is a scalar blob, not an absence carrier
	default:
		return false
	}
}

// fieldValue converts a field into a bind-ready value. Nil pointers
// become nil; non-nil pointers are dereferenced.
func fieldValue(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// assignField writes a database value into the field at dst, coercing
// between the driver's scan types (int64, float64, string, []byte) and
// the field's declared type. dst must be a non-nil pointer to the field.
func assignField(dst any, v any) error {
	dv := reflect.ValueOf(dst).Elem()
	if v == nil {
		if !isNullableType(dv.Type()) {
			return fmt.Errorf("assigning NULL to non-nullable %s field", dv.Type())
		}
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}

	target := dv
	if dv.Kind() == reflect.Pointer {
		// Allocate the pointee and assign through it.
		p := reflect.New(dv.Type().Elem())
		if err := coerce(p.Elem(), v); err != nil {
			return err
		}
		dv.Set(p)
		return nil
	}
	return coerce(target, v)
}

// coerce assigns v into the settable value dst, converting between the
// numeric, string, bytes, and bool representations SQLite hands back.
func coerce(dst reflect.Value, v any) error {
	sv := reflect.ValueOf(v)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		// SQLite stores booleans as integers.
		switch n := v.(type) {
		case int64:
			dst.SetBool(n != 0)
			return nil
		case bool:
			dst.SetBool(n)
			return nil
		}
	case reflect.String:
		switch s := v.(type) {
		case string:
			dst.SetString(s)
			return nil
		case []byte:
			dst.SetString(string(s))
			return nil
		}
	case reflect.Slice:
		if dst.Type() == reflect.TypeOf([]byte(nil)) {
			switch b := v.(type) {
			case []byte:
				dst.SetBytes(append([]byte(nil), b...))
				return nil
			case string:
				dst.SetBytes([]byte(b))
				return nil
			}
		}
	}

	if sv.Type().ConvertibleTo(dst.Type()) {
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			dst.Set(sv.Convert(dst.Type()))
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s field", v, dst.Type())
}
