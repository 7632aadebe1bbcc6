// Package supportpoint defines the SupportPoint type consumed/produced by a
// build (spec.md §3) and the optional text point-file codec used by tests
// (spec.md §6, §10 "supplemented features" — the original test suite loads
// fixtures from exactly this format).
package supportpoint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/noctua3d/slasupport/slaerr"
)

// SupportPoint is one caller-supplied or auto-generated point on the mesh
// surface at which a pinhead should be attached.
type SupportPoint struct {
	Pos         mgl32.Vec3
	HeadR       float32
	IsNewIsland bool
	// Flags is the raw bitfield carried by the text file format; bit 0 is
	// IsNewIsland, the rest are reserved for caller use.
	Flags uint32
}

const flagNewIsland = 1

// ParseFile reads the text point-file format: one point per line,
// `x y z r flags`, millimetres, `.` decimal separator; lines starting with
// `#` (after trimming whitespace) are comments and blank lines are skipped.
func ParseFile(r io.Reader) ([]SupportPoint, error) {
	var pts []SupportPoint
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, slaerr.Wrapf(slaerr.ConfigInvalid, "supportpoint: line %d: want 5 fields, got %d", lineNo, len(fields))
		}
		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, slaerr.Wrapf(slaerr.ConfigInvalid, "supportpoint: line %d: field %d: %v", lineNo, i, err)
			}
			vals[i] = v
		}
		flags, err := strconv.ParseUint(fields[4], 10, 32)
		if err != nil {
			return nil, slaerr.Wrapf(slaerr.ConfigInvalid, "supportpoint: line %d: flags: %v", lineNo, err)
		}
		pts = append(pts, SupportPoint{
			Pos:         mgl32.Vec3{float32(vals[0]), float32(vals[1]), float32(vals[2])},
			HeadR:       float32(vals[3]),
			IsNewIsland: flags&flagNewIsland != 0,
			Flags:       uint32(flags),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, slaerr.Wrapf(slaerr.ConfigInvalid, "supportpoint: %v", err)
	}
	return pts, nil
}

// WriteFile writes pts in the same format ParseFile reads.
func WriteFile(w io.Writer, pts []SupportPoint) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		flags := p.Flags
		if p.IsNewIsland {
			flags |= flagNewIsland
		}
		if _, err := fmt.Fprintf(bw, "%g %g %g %g %d\n", p.Pos.X(), p.Pos.Y(), p.Pos.Z(), p.HeadR, flags); err != nil {
			return err
		}
	}
	return bw.Flush()
}
