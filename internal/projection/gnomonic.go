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

// Gnomonic (TAN) projection
type gnomonic struct {
	params Params
	lin    linear
}

func (g *gnomonic) Kind() Kind     { return Gnomonic }
func (g *gnomonic) Params() Params { return g.params.clone() }

func (g *gnomonic) Forward(pixel coord.Point2D) (coord.LonLat, error) {
	x, y:=g.lin.toIntermediate(pixel)
	return tangentToSky(g.params.RefSky, x, y), nil
}

func (g *gnomonic) Reverse(sky coord.LonLat) (coord.Point2D, error) {
	x, y, err:=skyToTangent(g.params.RefSky, sky)
	if err != nil {
		return coord.Point2D{}, err
	}
	return g.lin.toPixel(x, y), nil
}

// Deprojects tangent plane coordinates x, y in degrees around the tangent point ref
// onto the sphere. The offset has distance delta=atan(r) from ref at position
// angle -beta, with beta=atan2(-x,y).
func tangentToSky(ref coord.LonLat, x, y float64) coord.LonLat {
	xr, yr:=sphere.Rad(x), sphere.Rad(y)
	delta:=math.Atan(math.Hypot(xr, yr))
	beta:=0.0
	if xr != 0 || yr != 0 {
		beta = math.Atan2(-xr, yr)
	}
	sinDelta, cosDelta:=math.Sincos(delta)
	sinBeta, cosBeta:=math.Sincos(beta)
	sinDec0, cosDec0:=sphere.SinCosD(ref.Lat)

	sinDec:=sinDec0*cosDelta + cosDec0*sinDelta*cosBeta
	east:=-sinBeta * sinDelta
	north:=cosDec0*cosDelta - sinDec0*sinDelta*cosBeta

	dec:=sphere.Atan2D(sinDec, math.Hypot(east, north))
	ra:=ref.Lon
	if east != 0 || north != 0 {
		ra += sphere.Atan2D(east, north)
	}
	return coord.LonLat{Lon: sphere.NormalizeLon(ra), Lat: dec}
}

// Projects sky onto the plane tangent at ref, returning standard coordinates
// in degrees. Points 90 degrees or more from ref have no image.
func skyToTangent(ref, sky coord.LonLat) (x, y float64, err error) {
	sinDRa, cosDRa:=sphere.SinCosD(sky.Lon - ref.Lon)
	sinDec, cosDec:=sphere.SinCosD(sky.Lat)
	sinDec0, cosDec0:=sphere.SinCosD(ref.Lat)

	denom:=sinDec*sinDec0 + cosDec*cosDec0*cosDRa
	if !(denom > 0) {
		return 0, 0, notOnImagef("%v is %.3f° from tangent point %v",
			sky, sphere.Distance(ref, sky), ref)
	}
	xi:=cosDec * sinDRa / denom
	eta:=(sinDec*cosDec0 - cosDec*sinDec0*cosDRa) / denom
	return sphere.Deg(xi), sphere.Deg(eta), nil
}
