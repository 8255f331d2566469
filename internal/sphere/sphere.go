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

// Package sphere provides trigonometry in degrees and great circle
// helpers for the celestial sphere.
package sphere

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/s2"
	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/soniakeys/unit"
)

// Inputs to the inverse functions may overshoot [-1,1] by this much
// through rounding, and are clamped to the boundary
const DomainTolerance = 1e-10

// Argument outside the domain of an inverse trigonometric function
var ErrDomain = errors.New("argument outside trigonometric domain")

// Converts degrees to radians
func Rad(deg float64) float64 {
	return unit.AngleFromDeg(deg).Rad()
}

// Converts radians to degrees
func Deg(rad float64) float64 {
	return unit.Angle(rad).Deg()
}

// Sine of an angle in degrees. Exact at multiples of 90.
func SinD(deg float64) float64 {
	if math.Mod(deg-90, 90) == 0 {
		switch int64(math.Abs(math.Floor(deg/90-0.5))) % 4 {
		case 0:
			return 1
		case 1:
			return 0
		case 2:
			return -1
		case 3:
			return 0
		}
	}
	return math.Sin(Rad(deg))
}

// Cosine of an angle in degrees. Exact at multiples of 90.
func CosD(deg float64) float64 {
	if math.Mod(deg, 90) == 0 {
		switch int64(math.Abs(math.Floor(deg/90+0.5))) % 4 {
		case 0:
			return 1
		case 1:
			return 0
		case 2:
			return -1
		case 3:
			return 0
		}
	}
	return math.Cos(Rad(deg))
}

// Sine and cosine of an angle in degrees
func SinCosD(deg float64) (sin, cos float64) {
	return SinD(deg), CosD(deg)
}

// Tangent of an angle in degrees. Exact at multiples of 45.
func TanD(deg float64) float64 {
	if math.Mod(deg, 45) == 0 {
		switch r:=math.Mod(deg, 360); r {
		case 0, 180, -180:
			return 0
		case 45, 225, -135, -315:
			return 1
		case -45, -225, 135, 315:
			return -1
		}
	}
	return math.Tan(Rad(deg))
}

// Arc sine in degrees. Fails with ErrDomain outside [-1,1] plus tolerance.
func AsinD(v float64) (float64, error) {
	v, err := clampUnit(v, "asin")
	if err != nil {
		return math.NaN(), err
	}
	switch v {
	case 1:
		return 90, nil
	case -1:
		return -90, nil
	}
	return Deg(math.Asin(v)), nil
}

// Arc cosine in degrees. Fails with ErrDomain outside [-1,1] plus tolerance.
func AcosD(v float64) (float64, error) {
	v, err := clampUnit(v, "acos")
	if err != nil {
		return math.NaN(), err
	}
	switch v {
	case 1:
		return 0, nil
	case 0:
		return 90, nil
	case -1:
		return 180, nil
	}
	return Deg(math.Acos(v)), nil
}

// Arc tangent in degrees
func AtanD(v float64) float64 {
	return Deg(math.Atan(v))
}

// Two-argument arc tangent in degrees, range [-180,180]
func Atan2D(y, x float64) float64 {
	return Deg(math.Atan2(y, x))
}

func clampUnit(v float64, op string) (float64, error) {
	switch {
	case math.IsNaN(v):
		return v, errors.Mark(errors.Newf("%s(NaN)", op), ErrDomain)
	case v > 1:
		if v-1 > DomainTolerance {
			return v, errors.Mark(errors.Newf("%s(%.17g) exceeds 1", op, v), ErrDomain)
		}
		return 1, nil
	case v < -1:
		if -1-v > DomainTolerance {
			return v, errors.Mark(errors.Newf("%s(%.17g) below -1", op, v), ErrDomain)
		}
		return -1, nil
	}
	return v, nil
}

// Normalizes a longitude in degrees into [0,360)
func NormalizeLon(lon float64) float64 {
	l:=unit.PMod(lon, 360)
	if l >= 360 {
		l = 0
	}
	return l
}

// Normalizes an angle in degrees into [-180,180]
func NormalizeSigned(deg float64) float64 {
	if deg > 180 {
		deg -= 360
	} else if deg < -180 {
		deg += 360
	}
	return deg
}

// Great circle distance between two points on the sphere, in degrees
func Distance(a, b coord.LonLat) float64 {
	la:=s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb:=s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Degrees()
}

// Position angle of to as seen from from, in degrees east of north, range [0,360)
func Bearing(from, to coord.LonLat) float64 {
	sinDLon, cosDLon:=SinCosD(to.Lon - from.Lon)
	sinLat1, cosLat1:=SinCosD(from.Lat)
	sinLat2, cosLat2:=SinCosD(to.Lat)
	y:=sinDLon * cosLat2
	x:=cosLat1*sinLat2 - sinLat1*cosLat2*cosDLon
	if x == 0 && y == 0 {
		return 0
	}
	return NormalizeLon(Atan2D(y, x))
}

// Returns true if lat is a valid latitude in degrees
func ValidLat(lat float64) bool {
	return lat >= -90 && lat <= 90
}
