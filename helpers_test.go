package typelib

import "reflect"

// Simple is a struct with scalar fields.
type Simple struct {
	A string
	B int64
}

// Nested is a struct with a struct field.
type Nested struct {
	A int64
	B Simple
}

// Embedded embeds another struct by value.
type Embedded struct {
	Simple
	C int64
}

// EmbeddedP embeds another struct by pointer.
type EmbeddedP struct {
	*Simple
	C int64
}

// Tagged renames one field and excludes another.
type Tagged struct {
	A string `typelib:"renamed"`
	B string `typelib:"-"`
	C string
}

// WithAny is a struct with an untyped field.
type WithAny struct {
	A any
}

// WithChan has a field that has no wire mapping at all.
type WithChan struct {
	A string
	C chan int
}

// Tree is a self-referential struct.
type Tree struct {
	Left  *Tree
	Right *Tree
}

// ListNode is self-referential through a single field.
type ListNode struct {
	Val  string
	Next *ListNode
}

// Ping and Pong are mutually recursive.
type Ping struct {
	P *Pong
}

type Pong struct {
	P *Ping
}

// Color is an enum of three members.
type Color string

// Version is a literal value set.
type Version int

// Scalar is a union of int64 and string, int64 first.
type Scalar interface{}

// Point is a positional tuple.
type Point struct {
	X string
	Y int64
}

func init() {
	RegisterEnum[Color]("red", "green", "blue")
	RegisterLiteral[Version](1, 2, 4)
	RegisterUnion[Scalar](reflect.TypeFor[int64](), reflect.TypeFor[string]())
	RegisterTuple[Point]()
}

func ptr[T any](v T) *T {
	return &v
}
