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
)

const (
	maxTPVIterations = 20
	tpvTolerance     = 1e-11 // degrees
)

// Gnomonic projection with a TPV polynomial distortion of the intermediate coordinates
type tpv struct {
	params Params
	lin    linear
	pv1    []float64
	pv2    []float64
}

func (t *tpv) Kind() Kind     { return TPV }
func (t *tpv) Params() Params { return t.params.clone() }

// Evaluates one TPV polynomial at (u,v) with r=sqrt(u²+v²), returning the value and
// its partial derivatives by u and v. PV1 uses (u,v)=(x,y), PV2 uses (u,v)=(y,x).
//
//	0:1  1:u  2:v  3:r  4:u²  5:uv  6:v²  7:u³  8:u²v  9:uv²  10:v³  11:r³
//	12:u⁴  13:u³v  14:u²v²  15:uv³  16:v⁴
func evalTPV(c []float64, u, v float64) (val, du, dv float64) {
	u2, v2, uv:=u*u, v*v, u*v
	r:=math.Sqrt(u2 + v2)
	var ur, vr float64 // dr/du, dr/dv
	if r != 0 {
		ur, vr = u/r, v/r
	}

	val = c[0] + c[1]*u + c[2]*v + c[3]*r +
		c[4]*u2 + c[5]*uv + c[6]*v2 +
		c[7]*u2*u + c[8]*u2*v + c[9]*u*v2 + c[10]*v2*v +
		c[11]*r*r*r
	du = c[1] + c[3]*ur + 2*c[4]*u + c[5]*v +
		3*c[7]*u2 + 2*c[8]*uv + c[9]*v2 + 3*c[11]*r*u
	dv = c[2] + c[3]*vr + c[5]*u + 2*c[6]*v +
		c[8]*u2 + 2*c[9]*uv + 3*c[10]*v2 + 3*c[11]*r*v

	if len(c) > 12 {
		var q [5]float64
		copy(q[:], c[12:])
		val += q[0]*u2*u2 + q[1]*u2*uv + q[2]*u2*v2 + q[3]*uv*v2 + q[4]*v2*v2
		du += 4*q[0]*u2*u + 3*q[1]*u2*v + 2*q[2]*u*v2 + q[3]*v2*v
		dv += q[1]*u2*u + 2*q[2]*u2*v + 3*q[3]*u*v2 + 4*q[4]*v2*v
	}
	return val, du, dv
}

// Applies the distortion to intermediate coordinates in degrees, returning
// the distorted coordinates and the Jacobian m1=dxi/dx, m2=dxi/dy, m3=deta/dx, m4=deta/dy
func (t *tpv) distort(x, y float64) (xi, eta, m1, m2, m3, m4 float64) {
	xi, m1, m2 = evalTPV(t.pv1, x, y)
	eta, m4, m3 = evalTPV(t.pv2, y, x)
	return xi, eta, m1, m2, m3, m4
}

func (t *tpv) Forward(pixel coord.Point2D) (coord.LonLat, error) {
	x, y:=t.lin.toIntermediate(pixel)
	xi, eta, _, _, _, _:=t.distort(x, y)
	return tangentToSky(t.params.RefSky, xi, eta), nil
}

func (t *tpv) Reverse(sky coord.LonLat) (coord.Point2D, error) {
	xiT, etaT, err:=skyToTangent(t.params.RefSky, sky)
	if err != nil {
		return coord.Point2D{}, err
	}

	x, y:=xiT, etaT
	dx, dy:=math.Inf(1), math.Inf(1)
	converged:=false
	i:=0
	for ; i < maxTPVIterations; i++ {
		xi, eta, m1, m2, m3, m4:=t.distort(x, y)
		det:=m1*m4 - m2*m3
		if det == 0 || math.IsNaN(det) {
			break
		}
		dXi, dEta:=xiT-xi, etaT-eta
		dx = (m4*dXi - m2*dEta) / det
		dy = (m1*dEta - m3*dXi) / det
		x += dx
		y += dy
		if math.Abs(dx) < tpvTolerance && math.Abs(dy) < tpvTolerance {
			converged = true
			i++
			break
		}
	}

	pixel:=t.lin.toPixel(x, y)
	if !converged {
		return pixel, newConvergenceWarning(TPV, i, dx, dy)
	}
	return pixel, nil
}
