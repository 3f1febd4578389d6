// Package block defines the lightweight descriptor carried between pipeline
// nodes. A Block never owns storage: every slice field aliases a static,
// stack, or DMA-backed array supplied by the composing application, and
// handing a Block to the next node never copies sample data.
//
// Rather than the source's type-erased byte buffer + pointer-cast view (see
// spec.md 3 "buffer: Ref<[u8]>"), Block is a closed tagged union over the
// concrete element types the pipeline actually moves: real samples, complex
// samples, raw ADC samples, and the two single-value payloads DDC/SParam
// produce. This keeps the zero-copy contract (every case aliases the same
// backing array a node already holds) without reaching for unsafe pointer
// casts, which spec.md 9's "dual-typed interpretation" open question flags
// as exactly the kind of ambiguity a faithful reimplementation should
// resolve explicitly instead of inheriting.
package block

import "github.com/samoyed-instruments/meascore/kernel"

// Kind tags which field of a Block is active.
type Kind int

const (
	KindReal Kind = iota
	KindComplex
	KindSample
	KindDDCAccum
	KindGamma
)

// DDCAccumValue mirrors dsp.DDCAccum so that package block does not depend
// on package dsp. The pipeline package converts between the two at the
// DDC/SParam boundary.
type DDCAccumValue struct {
	AccI, AccQ, RefI, RefQ int64
}

// Block is the descriptor handed from one pipeline node to the next.
type Block struct {
	SourceID uint32
	Sequence uint32
	Size     int // element count, meaning depends on Kind
	Kind     Kind

	Reals     []kernel.R
	Complexes []kernel.C
	Samples   []int16
	Accum     DDCAccumValue
	Gamma     kernel.C
}

// RealBlock wraps a real-valued slice, aliasing data (no copy).
func RealBlock(sourceID, sequence uint32, data []kernel.R) Block {
	return Block{SourceID: sourceID, Sequence: sequence, Size: len(data), Kind: KindReal, Reals: data}
}

// ComplexBlock wraps a complex-valued slice, aliasing data (no copy).
func ComplexBlock(sourceID, sequence uint32, data []kernel.C) Block {
	return Block{SourceID: sourceID, Sequence: sequence, Size: len(data), Kind: KindComplex, Complexes: data}
}

// SampleBlock wraps a raw ADC sample slice, aliasing data (no copy).
func SampleBlock(sourceID, sequence uint32, data []int16) Block {
	return Block{SourceID: sourceID, Sequence: sequence, Size: len(data), Kind: KindSample, Samples: data}
}

// AccumBlock wraps a DDC accumulator value. Size is 1 by convention
// (spec.md 4.3's "output.size = sizeof(ValueStruct)").
func AccumBlock(sourceID, sequence uint32, acc DDCAccumValue) Block {
	return Block{SourceID: sourceID, Sequence: sequence, Size: 1, Kind: KindDDCAccum, Accum: acc}
}

// GammaBlock wraps a single complex reflection-coefficient value.
func GammaBlock(sourceID, sequence uint32, gamma kernel.C) Block {
	return Block{SourceID: sourceID, Sequence: sequence, Size: 1, Kind: KindGamma, Gamma: gamma}
}
