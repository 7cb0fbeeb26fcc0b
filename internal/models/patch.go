package models

import "reflect"

// Opt is an optional value. The zero Opt is unset, which is distinct from
// an Opt explicitly set to the zero value of V.
type Opt[V any] struct {
	Value V
	Set   bool
}

// Some returns an Opt holding v.
func Some[V any](v V) Opt[V] {
	return Opt[V]{Value: v, Set: true}
}

func (o Opt[V]) isSet() bool { return o.Set }

func (o Opt[V]) value() any { return o.Value }

type optional interface {
	isSet() bool
	value() any
}

// PatchFields flattens a patch struct into a field map.
// Only Opt members that are set are included, keyed by their db tag.
func PatchFields(patch any) map[string]any {
	fields := make(map[string]any)

	v := reflect.ValueOf(patch)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return fields
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fields
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := sf.Tag.Get("db")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		opt, ok := v.Field(i).Interface().(optional)
		if !ok || !opt.isSet() {
			continue
		}
		fields[name] = opt.value()
	}
	return fields
}
