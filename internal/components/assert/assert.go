// Package assert holds precondition checks for constructors. A failed assertion is a
// programming error, so it panics instead of returning an error.
package assert

import (
	"fmt"
	"reflect"
)

func NotNil(value any) {
	if value == nil {
		panic("assert: value is nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		if v.IsNil() {
			panic(fmt.Sprintf("assert: %s is nil", v.Type()))
		}
	}
}

func NotEmptyStr(value string) {
	if value == "" {
		panic("assert: string is empty")
	}
}

func True(cond bool, message string) {
	if !cond {
		panic(fmt.Sprintf("assert: %s", message))
	}
}
