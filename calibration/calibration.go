// Package calibration implements SOLT (short/open/load/thru/isolation)
// vector error correction, parameterized over caller-provided per-frequency
// coefficient tables. Calibration stores references to those tables, never
// ownership, per spec.md 3.
package calibration

import (
	"github.com/samoyed-instruments/meascore/block"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// EPS is the |denominator|^2 threshold below which a division in Apply or
// ComputeCoefficients is treated as singular.
const EPS = 1e-9

// Standard identifies which calibration standard a measurement was taken
// against.
type Standard int

const (
	Short Standard = iota
	Open
	Load
	Thru
	Isolation
)

// Coeffs is the five-term SOLT error-term set at one frequency point.
type Coeffs struct {
	Ed, Es, Er, Et, Ex kernel.C
}

// Calibration holds references (not ownership) to the per-point coefficient
// array and the raw standard measurements used to compute it.
type Calibration struct {
	Points int

	// Coefficients is caller-allocated, length Points. ComputeCoefficients
	// fills it in place.
	Coefficients []Coeffs

	// raw holds one measured complex value per standard per point,
	// caller-allocated, length Points each.
	shortMeas     []kernel.C
	openMeas      []kernel.C
	loadMeas      []kernel.C
	thruMeas      []kernel.C
	isolationMeas []kernel.C

	// boundaryHit is true when the most recent successful Apply hit the EPS
	// guard and is cleared by the next one that does not, so callers can
	// surface it via an Error event without the core paying for an event
	// publish on every point.
	boundaryHit bool
}

// New wires a Calibration to caller-provided storage. Every slice must have
// length points.
func New(points int, coefficients []Coeffs, shortMeas, openMeas, loadMeas, thruMeas, isolationMeas []kernel.C) *Calibration {
	return &Calibration{
		Points:        points,
		Coefficients:  coefficients,
		shortMeas:     shortMeas,
		openMeas:      openMeas,
		loadMeas:      loadMeas,
		thruMeas:      thruMeas,
		isolationMeas: isolationMeas,
	}
}

func (c *Calibration) storageFor(kind Standard) []kernel.C {
	switch kind {
	case Short:
		return c.shortMeas
	case Open:
		return c.openMeas
	case Load:
		return c.loadMeas
	case Thru:
		return c.thruMeas
	case Isolation:
		return c.isolationMeas
	default:
		return nil
	}
}

// MeasureStandard stores one acquisition's raw measurement for kind at
// point. Returns Error if point is out of range.
func (c *Calibration) MeasureStandard(kind Standard, point int, measured kernel.C) status.Status {
	storage := c.storageFor(kind)
	if storage == nil || point < 0 || point >= len(storage) {
		return status.Error
	}
	storage[point] = measured
	return status.Ok
}

// ComputeCoefficients solves the SOLT equations per-frequency point from
// the stored standard measurements, filling Coefficients.
//
// One-port terms (directivity Ed, source match Es, reflection tracking Er)
// come from the classic three-standard solution assuming ideal standards
// (Short = -1, Open = +1, Load = 0):
//
//	Ed = Gamma_load
//	Es = -(A+B)/(A-B), where A = Gamma_short - Ed, B = Gamma_open - Ed
//	Er = B*(1-Es)
//
// Transmission terms (tracking Et, isolation Ex) use the simplified
// two-standard form Ex = Gamma_isolation, Et = Gamma_thru - Ex, which omits
// match correction on the through path; a full 12-term two-port model is
// out of scope for this core (see DESIGN.md).
func (c *Calibration) ComputeCoefficients() status.Status {
	if len(c.Coefficients) < c.Points || len(c.shortMeas) < c.Points || len(c.openMeas) < c.Points ||
		len(c.loadMeas) < c.Points || len(c.thruMeas) < c.Points || len(c.isolationMeas) < c.Points {
		return status.Error
	}
	for i := 0; i < c.Points; i++ {
		ed := c.loadMeas[i]
		a := c.shortMeas[i].Sub(ed)
		b := c.openMeas[i].Sub(ed)

		denom := a.Sub(b)
		var es kernel.C
		if kernel.Magnitude(denom)*kernel.Magnitude(denom) >= EPS {
			es = a.Add(b).Mul(kernel.C{Re: -1}).Div(denom, EPS)
		}
		er := b.Mul(kernel.C{Re: 1}.Sub(es))

		ex := c.isolationMeas[i]
		et := c.thruMeas[i].Sub(ex)

		c.Coefficients[i] = Coeffs{Ed: ed, Es: es, Er: er, Et: et, Ex: ex}
	}
	return status.Ok
}

// rawComplex extracts the single complex value a Calibration node operates
// on, whether the block carries it as a Gamma singleton or a one-element
// Complex array.
func rawComplex(blk block.Block) (kernel.C, bool) {
	switch blk.Kind {
	case block.KindGamma:
		return blk.Gamma, true
	case block.KindComplex:
		if blk.Size != 1 || len(blk.Complexes) < 1 {
			return kernel.C{}, false
		}
		return blk.Complexes[0], true
	default:
		return kernel.C{}, false
	}
}

// Apply reads the complex sample in blk, selects the coefficients at
// blk.SourceID (interpreted as a point index), and returns a new block
// holding the corrected sample. A nil Calibration is a pass-through: the
// value is still copied into a new block (spec.md 4.3 edge case 4).
func Apply(c *Calibration, blk block.Block) (block.Block, status.Status) {
	raw, ok := rawComplex(blk)
	if !ok {
		return block.Block{}, status.Error
	}

	if c == nil {
		return block.GammaBlock(blk.SourceID, blk.Sequence, raw), status.Ok
	}

	point := int(blk.SourceID)
	if point < 0 || point >= len(c.Coefficients) {
		return block.Block{}, status.Error
	}
	coeff := c.Coefficients[point]

	// One-port reflection correction: Gamma_actual = (Gm - Ed) / (Er + Es*(Gm-Ed))
	num := raw.Sub(coeff.Ed)
	den := coeff.Er.Add(coeff.Es.Mul(num))

	denMagSq := den.Re*den.Re + den.Im*den.Im
	if denMagSq < EPS {
		c.boundaryHit = true
		return block.GammaBlock(blk.SourceID, blk.Sequence, kernel.C{}), status.Ok
	}
	c.boundaryHit = false
	corrected := num.Div(den, EPS)
	return block.GammaBlock(blk.SourceID, blk.Sequence, corrected), status.Ok
}

// BoundaryHit reports whether the most recent Apply call hit the EPS
// division guard.
func (c *Calibration) BoundaryHit() bool {
	if c == nil {
		return false
	}
	return c.boundaryHit
}
