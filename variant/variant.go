// Package variant implements the closed tagged union used at the core's
// configuration and event-payload boundaries (property get/set, event
// data). Internally the core prefers direct, strongly-typed fields; Variant
// exists only to interoperate with external, dynamically-typed surfaces
// (a shell, a serialized config, a generic event subscriber).
package variant

import "github.com/samoyed-instruments/meascore/kernel"

// Kind is the active tag of a Variant.
type Kind int

const (
	KindInt64 Kind = iota
	KindReal
	KindString
	KindBool
	KindComplex
	KindPtr
)

// Variant is a closed tagged union. The zero value is KindInt64 with value
// 0; callers should not rely on the zero value carrying meaning.
type Variant struct {
	kind Kind
	i    int64
	r    kernel.R
	s    string
	b    bool
	c    kernel.C
	p    any // pointer-typed payload; lifetime is governed externally
}

func Int64(v int64) Variant        { return Variant{kind: KindInt64, i: v} }
func Real(v kernel.R) Variant      { return Variant{kind: KindReal, r: v} }
func String(v string) Variant      { return Variant{kind: KindString, s: v} }
func Bool(v bool) Variant          { return Variant{kind: KindBool, b: v} }
func Complex(v kernel.C) Variant   { return Variant{kind: KindComplex, c: v} }
func Ptr(v any) Variant            { return Variant{kind: KindPtr, p: v} }

func (v Variant) Kind() Kind { return v.kind }

// AsInt64 returns the int64 payload and whether the tag matched.
func (v Variant) AsInt64() (int64, bool) { return v.i, v.kind == KindInt64 }

// AsReal returns the real payload and whether the tag matched.
func (v Variant) AsReal() (kernel.R, bool) { return v.r, v.kind == KindReal }

// AsString returns the string payload and whether the tag matched.
func (v Variant) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBool returns the bool payload and whether the tag matched.
func (v Variant) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsComplex returns the complex payload and whether the tag matched.
func (v Variant) AsComplex() (kernel.C, bool) { return v.c, v.kind == KindComplex }

// AsPtr returns the pointer payload and whether the tag matched.
func (v Variant) AsPtr() (any, bool) { return v.p, v.kind == KindPtr }
