// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package coord

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// A 2-dimensional point with floating point coordinates.
// Used for pixel positions, plate positions and tangent plane offsets.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// A position on the celestial sphere, in degrees.
// Lon is right ascension or galactic longitude, Lat is declination or galactic latitude.
type LonLat struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// A 2x2 matrix in FITS CDi_j order, mapping pixel offsets to intermediate world coordinates.
type Matrix2x2 struct {
	CD11 float64 `json:"cd1_1" yaml:"cd1_1"`
	CD12 float64 `json:"cd1_2" yaml:"cd1_2"`
	CD21 float64 `json:"cd2_1" yaml:"cd2_1"`
	CD22 float64 `json:"cd2_2" yaml:"cd2_2"`
}

// A 2D affine coordinate transformation.
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Transform2D struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.X, p.Y)
}

func (s LonLat) String() string {
	return fmt.Sprintf("(%.9f, %+.9f)", s.Lon, s.Lat)
}

func (t Transform2D) String() string {
	return fmt.Sprintf("x'=%.8gx %+.8gy %+.4g, y'=%.8gx %+.8gy %+.4g",
		t.A, t.B, t.C, t.D, t.E, t.F)
}

// Returns the euclidian distance between the two given points
func Dist2D(a, b Point2D) float64 {
	return math.Sqrt(Dist2DSquared(a, b))
}

// Returns the squared euclidian distance between the two given points
func Dist2DSquared(a, b Point2D) float64 {
	dx, dy:=a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func Add2D(a, b Point2D) Point2D {
	return Point2D{a.X + b.X, a.Y + b.Y}
}

func Sub2D(a, b Point2D) Point2D {
	return Point2D{a.X - b.X, a.Y - b.Y}
}

// Creates a linear transformation without offset from the given matrix
func NewLinearTransform2D(m Matrix2x2) Transform2D {
	return Transform2D{m.CD11, m.CD12, 0, m.CD21, m.CD22, 0}
}

// Creates a linear transformation which scales the axes by sx and sy, then rotates
// counterclockwise by rot degrees. This is the AIPS convention relating CDELTi and
// CROTA2 to the CD matrix.
func NewScaleRotateTransform2D(sx, sy, rot float64) Transform2D {
	r:=rot * math.Pi / 180
	sin, cos:=math.Sincos(r)
	if math.Mod(rot, 90) == 0 {
		// avoid residues like cos(90°)=6e-17 for axis-aligned grids
		sin, cos = math.Round(sin), math.Round(cos)
	}
	return Transform2D{
		A: sx * cos, B: -sy * sin, C: 0,
		D: sx * sin, E: sy * cos, F: 0,
	}
}

// Returns the determinant of the linear part
func (t *Transform2D) Det() float64 {
	return t.A*t.E - t.B*t.D
}

// Apply given 2D transformation to the given coordinates
func (t *Transform2D) Apply(p Point2D) Point2D {
	xP:=t.A*p.X + t.B*p.Y + t.C
	yP:=t.D*p.X + t.E*p.Y + t.F
	return Point2D{xP, yP}
}

// Apply given 2D transformation to many given coordinates
func (t *Transform2D) ApplySlice(ps []Point2D) (pPs []Point2D) {
	pPs = make([]Point2D, len(ps))
	for i, p:=range ps {
		pPs[i] = t.Apply(p)
	}
	return pPs
}

// Invert a given 2D transformation. Returns an error if the matrix is singular
// or too ill-conditioned to invert reliably.
func (t *Transform2D) Invert() (inv Transform2D, err error) {
	if det:=t.Det(); det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Transform2D{}, errors.Newf("matrix has no inverse, determinant=%g", det)
	}
	// homogeneous form, the last row keeps the offsets separable
	m:=mat.NewDense(3, 3, []float64{
		t.A, t.B, t.C,
		t.D, t.E, t.F,
		0, 0, 1,
	})
	var mi mat.Dense
	if err:=mi.Inverse(m); err != nil {
		return Transform2D{}, errors.Wrapf(err, "inverting %v", t)
	}
	return Transform2D{
		A: mi.At(0, 0), B: mi.At(0, 1), C: mi.At(0, 2),
		D: mi.At(1, 0), E: mi.At(1, 1), F: mi.At(1, 2),
	}, nil
}
