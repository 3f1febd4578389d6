package calibration

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/samoyed-instruments/meascore/kernel"
)

// magic is the little-endian on-disk file signature, spec.md 6's literal
// "MEAS" read as a u32.
const magic uint32 = 0x5341454D // "MEAS" little-endian

// fileVersion is the on-disk format revision this package reads and writes.
const fileVersion uint16 = 1

// kindSOLT is the only calibration kind byte defined so far.
const kindSOLT uint8 = 0

// fileHeader mirrors spec.md 6's bit-exact persisted layout. Field order
// and widths must not change without bumping fileVersion.
type fileHeader struct {
	Magic    uint32
	Version  uint16
	Kind     uint8
	Reserved uint8
	Points   uint32
	StartHz  uint64
	StopHz   uint64
}

// fileRecord is one point's five-term coefficient set, each term a
// (Re, Im) float64 pair, little-endian.
type fileRecord struct {
	Ed, Es, Er, Et, Ex [2]float64
}

func coeffsToRecord(c Coeffs) fileRecord {
	return fileRecord{
		Ed: [2]float64{float64(c.Ed.Re), float64(c.Ed.Im)},
		Es: [2]float64{float64(c.Es.Re), float64(c.Es.Im)},
		Er: [2]float64{float64(c.Er.Re), float64(c.Er.Im)},
		Et: [2]float64{float64(c.Et.Re), float64(c.Et.Im)},
		Ex: [2]float64{float64(c.Ex.Re), float64(c.Ex.Im)},
	}
}

func recordToCoeffs(r fileRecord) Coeffs {
	return Coeffs{
		Ed: kernel.C{Re: kernel.R(r.Ed[0]), Im: kernel.R(r.Ed[1])},
		Es: kernel.C{Re: kernel.R(r.Es[0]), Im: kernel.R(r.Es[1])},
		Er: kernel.C{Re: kernel.R(r.Er[0]), Im: kernel.R(r.Er[1])},
		Et: kernel.C{Re: kernel.R(r.Et[0]), Im: kernel.R(r.Et[1])},
		Ex: kernel.C{Re: kernel.R(r.Ex[0]), Im: kernel.R(r.Ex[1])},
	}
}

// WriteFile serializes c's coefficients to w in the bit-exact layout
// spec.md 6 defines: a fixed header followed by one record per point.
// startHz/stopHz are recorded verbatim for the reader to sanity-check
// against the frequency plan it is about to apply the file to.
func WriteFile(w io.Writer, c *Calibration, startHz, stopHz kernel.R) error {
	if len(c.Coefficients) < c.Points {
		return fmt.Errorf("calibration: write file: coefficients shorter than points")
	}
	hdr := fileHeader{
		Magic:   magic,
		Version: fileVersion,
		Kind:    kindSOLT,
		Points:  uint32(c.Points),
		StartHz: uint64(startHz),
		StopHz:  uint64(stopHz),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("calibration: write header: %w", err)
	}
	for i := 0; i < c.Points; i++ {
		rec := coeffsToRecord(c.Coefficients[i])
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("calibration: write record %d: %w", i, err)
		}
	}
	return nil
}

// ReadFile parses a calibration file previously written by WriteFile,
// filling coefficients (which must have capacity for the file's point
// count) and returning the recorded start/stop frequency plan.
func ReadFile(r io.Reader, coefficients []Coeffs) (points int, startHz, stopHz kernel.R, err error) {
	var hdr fileHeader
	if err = binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, 0, 0, fmt.Errorf("calibration: read header: %w", err)
	}
	if hdr.Magic != magic {
		return 0, 0, 0, fmt.Errorf("calibration: bad magic %#x", hdr.Magic)
	}
	if hdr.Version != fileVersion {
		return 0, 0, 0, fmt.Errorf("calibration: unsupported version %d", hdr.Version)
	}
	if hdr.Kind != kindSOLT {
		return 0, 0, 0, fmt.Errorf("calibration: unsupported kind %d", hdr.Kind)
	}
	if int(hdr.Points) > len(coefficients) {
		return 0, 0, 0, fmt.Errorf("calibration: file has %d points, buffer holds %d", hdr.Points, len(coefficients))
	}
	for i := 0; i < int(hdr.Points); i++ {
		var rec fileRecord
		if err = binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return 0, 0, 0, fmt.Errorf("calibration: read record %d: %w", i, err)
		}
		coefficients[i] = recordToCoeffs(rec)
	}
	return int(hdr.Points), kernel.R(hdr.StartHz), kernel.R(hdr.StopHz), nil
}

// Marshal is a convenience wrapper around WriteFile for callers that want
// the serialized bytes directly (e.g. for a Storage.Write sector write)
// rather than an io.Writer.
func Marshal(c *Calibration, startHz, stopHz kernel.R) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, c, startHz, stopHz); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName builds a calibration-file name for t following pattern, in the
// strftime grammar the teacher's log/waypoint file naming uses (see
// deviceid.go's timestamp handling) rather than Go's reference-time layout.
// A typical pattern is "cal-%Y%m%d-%H%M%S.meascal".
func FileName(pattern string, t time.Time) (string, error) {
	name, err := strftime.Format(pattern, t)
	if err != nil {
		return "", fmt.Errorf("calibration: format file name: %w", err)
	}
	return name, nil
}
