package analysis

import (
	"math"
	"reflect"
)

// clean walks a result tree in place and replaces every non-finite float
// with an explicit null. Where the float sits in a field that cannot hold
// null (a plain float64), it becomes zero. The pass must run before a
// payload is serialized, because JSON has no encoding for NaN or infinity.
func clean(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(&v).Elem()
	cleanValue(rv)
	return v
}

func nonFinite(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		x := v.Float()
		return math.IsNaN(x) || math.IsInf(x, 0)
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return false
		}
		e := v.Elem()
		return (e.Kind() == reflect.Float32 || e.Kind() == reflect.Float64) && nonFinite(e)
	}
	return false
}

func cleanValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return
		}
		if nonFinite(v) {
			if v.CanSet() {
				v.Set(reflect.Zero(v.Type()))
			}
			return
		}
		e := v.Elem()
		if !needsWalk(e.Kind()) {
			return
		}
		cp := reflect.New(e.Type()).Elem()
		cp.Set(e)
		cleanValue(cp)
		if v.CanSet() {
			v.Set(cp)
		}
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		if nonFinite(v) {
			if v.CanSet() {
				v.Set(reflect.Zero(v.Type()))
			}
			return
		}
		cleanValue(v.Elem())
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).IsExported() {
				cleanValue(v.Field(i))
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			cleanValue(v.Index(i))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k, e := iter.Key(), iter.Value()
			if nonFinite(e) {
				v.SetMapIndex(k, reflect.Zero(e.Type()))
				continue
			}
			if !needsWalk(e.Kind()) {
				continue
			}
			cp := reflect.New(e.Type()).Elem()
			cp.Set(e)
			cleanValue(cp)
			v.SetMapIndex(k, cp)
		}
	case reflect.Float32, reflect.Float64:
		if nonFinite(v) && v.CanSet() {
			v.SetFloat(0)
		}
	}
}

func needsWalk(k reflect.Kind) bool {
	switch k {
	case reflect.Interface, reflect.Pointer, reflect.Struct, reflect.Slice,
		reflect.Array, reflect.Map, reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
