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
	"math"

	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/sphere"
)

const (
	arcsecPerRadian = 206264.8062470964

	maxPlateIterations = 50
	plateTolerance     = 5e-7 // mm
)

// DSS plate polynomial projection. The forward direction is closed form,
// the reverse direction inverts the polynomial with Newton-Raphson.
type plate struct {
	params Params
	model  PlateModel

	// precomputed trig of the plate centre
	ra0, dec0, sinDec0, cosDec0, tanDec0 float64
}

func newPlate(p Params) *plate {
	pm:=*p.Plate
	ra0, dec0:=sphere.Rad(pm.Center.Lon), sphere.Rad(pm.Center.Lat)
	sinDec0, cosDec0:=math.Sincos(dec0)
	return &plate{
		params:  p,
		model:   pm,
		ra0:     ra0,
		dec0:    dec0,
		sinDec0: sinDec0,
		cosDec0: cosDec0,
		tanDec0: sinDec0 / cosDec0,
	}
}

func (pl *plate) Kind() Kind     { return Plate }
func (pl *plate) Params() Params { return pl.params.clone() }

// Returns plate millimetres for the given image pixel
func (pl *plate) pixelToMM(pixel coord.Point2D) (x, y float64) {
	m:=&pl.model
	xp:=pixel.X - pl.params.RefPixel.X + m.PixelOffset.X
	yp:=pixel.Y - pl.params.RefPixel.Y + m.PixelOffset.Y
	x = (m.PlateOffset[2] - xp*m.PixelSize.X) / 1000
	y = (yp*m.PixelSize.Y - m.PlateOffset[5]) / 1000
	return x, y
}

// Returns the image pixel for the given plate millimetres
func (pl *plate) mmToPixel(x, y float64) coord.Point2D {
	m:=&pl.model
	xp:=(m.PlateOffset[2] - x*1000) / m.PixelSize.X
	yp:=(m.PlateOffset[5] + y*1000) / m.PixelSize.Y
	return coord.Point2D{
		X: xp - m.PixelOffset.X + pl.params.RefPixel.X,
		Y: yp - m.PixelOffset.Y + pl.params.RefPixel.Y,
	}
}

// Evaluates the plate polynomials at x, y in mm, returning standard coordinates in arcsec
func (pl *plate) standard(x, y float64) (xi, eta float64) {
	a, b:=&pl.model.XCoeff, &pl.model.YCoeff
	x2, y2, xy:=x*x, y*y, x*y
	r2:=x2 + y2
	xi = a[0]*x + a[1]*y + a[2] + a[3]*x2 + a[4]*xy + a[5]*y2 +
		a[6]*r2 + a[7]*x2*x + a[8]*x2*y + a[9]*x*y2 + a[10]*y2*y +
		a[11]*x*r2 + a[12]*x*r2*r2
	eta = b[0]*y + b[1]*x + b[2] + b[3]*y2 + b[4]*xy + b[5]*x2 +
		b[6]*r2 + b[7]*y2*y + b[8]*xy*y + b[9]*x2*y + b[10]*x2*x +
		b[11]*y*r2 + b[12]*y*r2*r2
	return xi, eta
}

// Evaluates the partial derivatives of the plate polynomials at x, y in mm
func (pl *plate) partials(x, y float64) (fx, fy, gx, gy float64) {
	a, b:=&pl.model.XCoeff, &pl.model.YCoeff
	x2, y2, xy:=x*x, y*y, x*y
	r2:=x2 + y2
	fx = a[0] + 2*a[3]*x + a[4]*y + 2*a[6]*x + 3*a[7]*x2 + 2*a[8]*xy + a[9]*y2 +
		a[11]*(3*x2+y2) + a[12]*(5*x2*x2+6*x2*y2+y2*y2)
	fy = a[1] + a[4]*x + 2*a[5]*y + 2*a[6]*y + a[8]*x2 + 2*a[9]*xy + 3*a[10]*y2 +
		2*a[11]*xy + 4*a[12]*xy*r2
	gx = b[1] + b[4]*y + 2*b[5]*x + 2*b[6]*x + b[8]*y2 + 2*b[9]*xy + 3*b[10]*x2 +
		2*b[11]*xy + 4*b[12]*xy*r2
	gy = b[0] + 2*b[3]*y + b[4]*x + 2*b[6]*y + 3*b[7]*y2 + 2*b[8]*xy + b[9]*x2 +
		b[11]*(x2+3*y2) + b[12]*(5*y2*y2+6*x2*y2+x2*x2)
	return fx, fy, gx, gy
}

func (pl *plate) Forward(pixel coord.Point2D) (coord.LonLat, error) {
	x, y:=pl.pixelToMM(pixel)
	xi, eta:=pl.standard(x, y)
	xi, eta = xi/arcsecPerRadian, eta/arcsecPerRadian

	div:=1 - eta*pl.tanDec0
	raOff:=math.Atan2(xi/pl.cosDec0, div)
	dec:=math.Atan(math.Cos(raOff) * (eta + pl.tanDec0) / div)
	return coord.LonLat{
		Lon: sphere.NormalizeLon(sphere.Deg(pl.ra0 + raOff)),
		Lat: sphere.Deg(dec),
	}, nil
}

func (pl *plate) Reverse(sky coord.LonLat) (coord.Point2D, error) {
	if d:=sphere.Distance(pl.model.Center, sky); d > 90 {
		return coord.Point2D{}, notOnImagef("%v is %.3f° from plate centre %v", sky, d, pl.model.Center)
	}
	xiDeg, etaDeg, err:=skyToTangent(pl.model.Center, sky)
	if err != nil {
		return coord.Point2D{}, err
	}
	xi, eta:=xiDeg*3600, etaDeg*3600

	x, y:=xi/pl.model.Scale, eta/pl.model.Scale
	dx, dy:=math.Inf(1), math.Inf(1)
	converged:=false
	i:=0
	for ; i < maxPlateIterations; i++ {
		f, g:=pl.standard(x, y)
		fx, fy, gx, gy:=pl.partials(x, y)
		f, g = f-xi, g-eta

		det:=fx*gy - fy*gx
		if det == 0 || math.IsNaN(det) {
			break
		}
		dx = (-f*gy + g*fy) / det
		dy = (-g*fx + f*gx) / det
		x += dx
		y += dy
		if math.Abs(dx) < plateTolerance && math.Abs(dy) < plateTolerance {
			converged = true
			i++
			break
		}
	}

	pixel:=pl.mmToPixel(x, y)
	if !converged {
		return pixel, newConvergenceWarning(Plate, i, dx, dy)
	}
	return pixel, nil
}
