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

package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/sphere"
)

// Projection model. Cylindrical is the equal area CEA projection with y=sin(theta)
// in degrees. Plate carrée (CAR) uses y=theta and is not supported.
type Kind int

const (
	Gnomonic    Kind = iota // TAN
	Cylindrical             // CEA, equal area with lambda=1
	Plate                   // DSS plate polynomial
	TPV                     // TAN with PV distortion polynomial
)

var kindNames = [...]string{"TAN", "CEA", "DSS", "TPV"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Parses a projection kind from its FITS-style name
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TAN", "GNOMONIC":
		return Gnomonic, nil
	case "CEA", "CYLINDRICAL":
		return Cylindrical, nil
	case "DSS", "PLATE":
		return Plate, nil
	case "TPV":
		return TPV, nil
	}
	return Gnomonic, invalidf("unknown projection kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, invalidf("unknown projection kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err:=ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Polynomial plate solution of a photographic survey plate
type PlateModel struct {
	Center      coord.LonLat  `json:"center" yaml:"center"`           // plate centre, degrees
	Scale       float64       `json:"scale" yaml:"scale"`             // arcsec per mm
	PixelSize   coord.Point2D `json:"pixelSize" yaml:"pixelSize"`     // microns
	PixelOffset coord.Point2D `json:"pixelOffset" yaml:"pixelOffset"` // plate frame pixel position of the reference pixel
	XCoeff      [20]float64   `json:"xCoeff" yaml:"xCoeff"`           // arcsec, 13 used
	YCoeff      [20]float64   `json:"yCoeff" yaml:"yCoeff"`           // arcsec, 13 used
	PlateOffset [6]float64    `json:"plateOffset" yaml:"plateOffset"` // microns, entries 2 and 5 used
}

// TPV distortion polynomial. Terms 0-11 are mandatory, 12-16 optional.
type DistortionModel struct {
	PV1 []float64 `json:"pv1" yaml:"pv1"`
	PV2 []float64 `json:"pv2" yaml:"pv2"`
}

const (
	minTPVTerms = 12
	maxTPVTerms = 17
)

// Returns the polynomial order, 3 or 4
func (d *DistortionModel) Order() int {
	if len(d.PV1) > minTPVTerms || len(d.PV2) > minTPVTerms {
		return 4
	}
	return 3
}

func (d *DistortionModel) clone() *DistortionModel {
	return &DistortionModel{
		PV1: append([]float64(nil), d.PV1...),
		PV2: append([]float64(nil), d.PV2...),
	}
}

// WCS-style description of how an image maps onto the sky. Pixel
// coordinates are 1-based as in FITS, so RefPixel is CRPIX verbatim.
type Params struct {
	Kind       Kind             `json:"kind" yaml:"kind"`
	RefPixel   coord.Point2D    `json:"refPixel" yaml:"refPixel"`                         // CRPIX
	RefSky     coord.LonLat     `json:"refSky" yaml:"refSky"`                             // CRVAL, degrees
	Scale      coord.Point2D    `json:"scale" yaml:"scale"`                               // CDELT, degrees per pixel
	Rotation   float64          `json:"rotation" yaml:"rotation"`                         // CROTA2, degrees
	Matrix     *coord.Matrix2x2 `json:"matrix,omitempty" yaml:"matrix,omitempty"`         // CD matrix, supersedes scale and rotation
	LonPole    *float64         `json:"lonPole,omitempty" yaml:"lonPole,omitempty"`       // LONPOLE override, cylindrical only
	LatPole    *float64         `json:"latPole,omitempty" yaml:"latPole,omitempty"`       // LATPOLE override, cylindrical only
	Plate      *PlateModel      `json:"plate,omitempty" yaml:"plate,omitempty"`           // plate solution, DSS only
	Distortion *DistortionModel `json:"distortion,omitempty" yaml:"distortion,omitempty"` // PV terms, TPV only
}

func (p *Params) UsingMatrix() bool {
	return p.Matrix != nil
}

// Returns the linear transform from pixel offsets to intermediate world coordinates in degrees
func (p *Params) Linear() coord.Transform2D {
	if p.Matrix != nil {
		return coord.NewLinearTransform2D(*p.Matrix)
	}
	return coord.NewScaleRotateTransform2D(p.Scale.X, p.Scale.Y, p.Rotation)
}

// Checks the parameters for consistency with the configured kind
func (p *Params) Validate() error {
	if p.Kind < Gnomonic || p.Kind > TPV {
		return invalidf("unknown projection kind %d", int(p.Kind))
	}
	if !finite(p.RefPixel.X) || !finite(p.RefPixel.Y) {
		return invalidf("reference pixel %v is not finite", p.RefPixel)
	}
	if !finite(p.RefSky.Lon) || !sphere.ValidLat(p.RefSky.Lat) {
		return invalidf("reference position %v outside the sphere", p.RefSky)
	}

	if p.Kind != Plate {
		if p.Matrix != nil {
			lin:=p.Linear()
			if _, err:=lin.Invert(); err != nil {
				return errors.Mark(errors.Wrapf(err, "CD matrix %+v", *p.Matrix), ErrInvalidParams)
			}
		} else if p.Scale.X == 0 || p.Scale.Y == 0 || !finite(p.Scale.X) || !finite(p.Scale.Y) {
			return invalidf("pixel scale %v must be finite and non-zero", p.Scale)
		}
		if !finite(p.Rotation) {
			return invalidf("rotation %g is not finite", p.Rotation)
		}
	}

	switch p.Kind {
	case Plate:
		pm:=p.Plate
		if pm == nil {
			return invalidf("%v projection without plate model", p.Kind)
		}
		if pm.Scale == 0 || !finite(pm.Scale) {
			return invalidf("plate scale %g must be finite and non-zero", pm.Scale)
		}
		if pm.PixelSize.X == 0 || pm.PixelSize.Y == 0 {
			return invalidf("plate pixel size %v must be non-zero", pm.PixelSize)
		}
		if !sphere.ValidLat(pm.Center.Lat) || math.Abs(pm.Center.Lat) == 90 {
			return invalidf("plate centre %v must lie off the poles", pm.Center)
		}
	case TPV:
		d:=p.Distortion
		if d == nil {
			return invalidf("%v projection without distortion model", p.Kind)
		}
		if n:=len(d.PV1); n < minTPVTerms || n > maxTPVTerms {
			return invalidf("PV1 has %d terms, want %d to %d", n, minTPVTerms, maxTPVTerms)
		}
		if n:=len(d.PV2); n < minTPVTerms || n > maxTPVTerms {
			return invalidf("PV2 has %d terms, want %d to %d", n, minTPVTerms, maxTPVTerms)
		}
	}
	return nil
}

// Returns a copy which shares no memory with p
func (p *Params) clone() Params {
	c:=*p
	if p.Matrix != nil {
		m:=*p.Matrix
		c.Matrix = &m
	}
	if p.LonPole != nil {
		v:=*p.LonPole
		c.LonPole = &v
	}
	if p.LatPole != nil {
		v:=*p.LatPole
		c.LatPole = &v
	}
	if p.Plate != nil {
		pm:=*p.Plate
		c.Plate = &pm
	}
	if p.Distortion != nil {
		c.Distortion = p.Distortion.clone()
	}
	return c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
