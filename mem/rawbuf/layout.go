package rawbuf

import (
	"reflect"
	"unsafe"
)

// Layout describes the elements a Buffer holds: size, alignment and whether
// they are trivially copyable.
//
// A trivial element has no Go pointers, so its bytes can live in any
// allocator's memory and be moved with a bulk copy. A non-trivial element is
// kept in storage the runtime allocated with the element's type, and is moved,
// copied and destroyed one element at a time through typed assignment so the
// garbage collector sees every pointer write.
type Layout struct {
	typ     reflect.Type
	name    string
	size    int
	align   int
	trivial bool
	ops     *typedOps
}

// typedOps is the per-type dispatch table for non-trivial layouts.
type typedOps struct {
	alloc   func(n int) []byte
	move    func(dst, src unsafe.Pointer)
	copy    func(dst, src unsafe.Pointer)
	destroy func(p unsafe.Pointer)
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	var zero T
	size := int(unsafe.Sizeof(zero))
	l := Layout{
		typ:     reflect.TypeFor[T](),
		name:    reflect.TypeFor[T]().String(),
		size:    size,
		align:   int(unsafe.Alignof(zero)),
		trivial: pointerFree(reflect.TypeFor[T]()),
	}
	if !l.trivial {
		l.ops = &typedOps{
			alloc: func(n int) []byte {
				s := make([]T, n)
				return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), n*size)
			},
			move: func(dst, src unsafe.Pointer) {
				*(*T)(dst) = *(*T)(src)
				*(*T)(src) = zero
			},
			copy: func(dst, src unsafe.Pointer) {
				*(*T)(dst) = *(*T)(src)
			},
			destroy: func(p unsafe.Pointer) {
				*(*T)(p) = zero
			},
		}
	}
	return l
}

// Name returns the element type name.
func (l Layout) Name() string { return l.name }

// Size returns the element size in bytes.
func (l Layout) Size() int { return l.size }

// Align returns the element alignment in bytes.
func (l Layout) Align() int { return l.align }

// Trivial reports whether elements hold no Go pointers.
func (l Layout) Trivial() bool { return l.trivial }

// pointerFree reports whether values of t contain no Go pointers.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
