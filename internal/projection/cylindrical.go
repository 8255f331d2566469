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

	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/sphere"
)

const (
	// Native latitude of the fiducial point for cylindrical projections
	cylTheta0 = 0.0

	// Tolerance on pole latitudes when solving for the native pole
	poleTolerance = 1e-10

	// Tolerance for the rearranged formulas near the native poles
	sphereTolerance = 1e-5
)

// Celestial coordinates of the native pole and the reference point, as
// prepared once per cylindrical projection.
//
//	Euler[0] celestial longitude of the native pole
//	Euler[1] celestial colatitude of the native pole
//	Euler[2] native longitude of the celestial pole
//	Euler[3] cos(Euler[1])
//	Euler[4] sin(Euler[1])
//
// CelRef holds the reference longitude, latitude, LONPOLE and LATPOLE.
type EulerFrame struct {
	Euler  [5]float64
	CelRef [4]float64
}

// Solves for the Euler angles of the native frame with the fiducial point at
// ref. Fails with ErrIllConditioned when the native pole is undetermined.
func prepare(ref coord.LonLat, lonPole, latPole *float64) (EulerFrame, error) {
	var f EulerFrame
	f.CelRef[0], f.CelRef[1] = ref.Lon, ref.Lat
	if lonPole != nil {
		f.CelRef[2] = *lonPole
	} else if ref.Lat < cylTheta0 {
		f.CelRef[2] = 180
	} else {
		f.CelRef[2] = 0
	}
	f.CelRef[3] = 90
	if latPole != nil {
		f.CelRef[3] = *latPole
	}

	phip:=f.CelRef[2]
	sinThe0, cosThe0:=sphere.SinCosD(cylTheta0)
	sinPhip, cosPhip:=sphere.SinCosD(phip)
	sinLat0, cosLat0:=sphere.SinCosD(ref.Lat)

	var latp float64
	x:=cosThe0 * cosPhip
	y:=sinThe0
	z:=math.Hypot(x, y)
	if z == 0 {
		if sinLat0 != 0 {
			return f, illConditionedf("LONPOLE %g leaves the native pole undetermined for reference latitude %g",
				phip, ref.Lat)
		}
		latp = f.CelRef[3]
	} else {
		if math.Abs(sinLat0/z) > 1 {
			return f, illConditionedf("no native pole for reference latitude %g with LONPOLE %g",
				ref.Lat, phip)
		}
		u:=sphere.Atan2D(y, x)
		v, err:=sphere.AcosD(sinLat0 / z)
		if err != nil {
			return f, errors.Mark(err, ErrIllConditioned)
		}
		latp1:=sphere.NormalizeSigned(u + v)
		latp2:=sphere.NormalizeSigned(u - v)

		ok1:=math.Abs(latp1) < 90+poleTolerance
		ok2:=math.Abs(latp2) < 90+poleTolerance
		switch {
		case ok1 && ok2:
			if math.Abs(f.CelRef[3]-latp1) < math.Abs(f.CelRef[3]-latp2) {
				latp = latp1
			} else {
				latp = latp2
			}
		case ok1:
			latp = latp1
		case ok2:
			latp = latp2
		default:
			return f, illConditionedf("native pole latitudes %g and %g both off the sphere", latp1, latp2)
		}
		if math.Abs(latp) > 90 {
			latp = math.Copysign(90, latp)
		}
	}
	f.CelRef[3] = latp

	f.Euler[1] = 90 - latp
	sinLatp, cosLatp:=sphere.SinCosD(latp)
	z = cosLatp * cosLat0
	if math.Abs(z) < poleTolerance {
		switch {
		case math.Abs(cosLat0) < poleTolerance:
			// celestial pole at the fiducial point
			f.Euler[0] = ref.Lon
			f.Euler[1] = 90 - cylTheta0
		case latp > 0:
			// celestial north pole at the native pole
			f.Euler[0] = ref.Lon + phip - 180
			f.Euler[1] = 0
		default:
			// celestial south pole at the native pole
			f.Euler[0] = ref.Lon - phip
			f.Euler[1] = 180
		}
	} else {
		x = (sinThe0 - sinLatp*sinLat0) / z
		y = sinPhip * cosThe0 / cosLat0
		if x == 0 && y == 0 {
			return f, illConditionedf("celestial longitude of the native pole undetermined at %v", ref)
		}
		f.Euler[0] = ref.Lon - sphere.Atan2D(y, x)
	}

	// longitude of the native pole takes the sign of the reference longitude
	if ref.Lon >= 0 {
		if f.Euler[0] < 0 {
			f.Euler[0] += 360
		}
	} else if f.Euler[0] > 0 {
		f.Euler[0] -= 360
	}

	f.Euler[2] = phip
	f.Euler[3] = sphere.CosD(f.Euler[1])
	f.Euler[4] = sphere.SinD(f.Euler[1])

	if math.Abs(latp) > 90+poleTolerance {
		return f, illConditionedf("native pole latitude %g off the sphere", latp)
	}
	return f, nil
}

// Transforms celestial coordinates to native spherical coordinates, all in degrees
func (f *EulerFrame) sphericalForward(lng, lat float64) (phi, theta float64, err error) {
	e:=&f.Euler
	dlng:=lng - e[0]
	sinLng, cosLng:=sphere.SinCosD(dlng)
	sinLat, cosLat:=sphere.SinCosD(lat)

	x:=sinLat*e[4] - cosLat*e[3]*cosLng
	if math.Abs(x) < sphereTolerance {
		// rearranged to avoid cancellation near the poles
		x = -sphere.CosD(lat+e[1]) + cosLat*e[3]*(1-cosLng)
	}
	y:=-cosLat * sinLng
	var dphi float64
	if x != 0 || y != 0 {
		dphi = sphere.Atan2D(y, x)
	} else {
		dphi = dlng - 180
	}
	phi = sphere.NormalizeSigned(e[2] + dphi)

	if math.Mod(dlng, 180) == 0 {
		theta = lat + cosLng*e[1]
		if theta > 90 {
			theta = 180 - theta
		}
		if theta < -90 {
			theta = -180 - theta
		}
		return phi, theta, nil
	}
	z:=sinLat*e[3] + cosLat*e[4]*cosLng
	if math.Abs(z) > 0.99 {
		// more precise near the poles
		a, err:=sphere.AcosD(math.Hypot(x, y))
		if err != nil {
			return phi, 0, err
		}
		return phi, math.Copysign(a, z), nil
	}
	theta, err = sphere.AsinD(z)
	return phi, theta, err
}

// Transforms native spherical coordinates to celestial coordinates, all in degrees
func (f *EulerFrame) sphericalReverse(phi, theta float64) (lng, lat float64, err error) {
	e:=&f.Euler
	dphi:=phi - e[2]
	sinPhi, cosPhi:=sphere.SinCosD(dphi)
	sinThe, cosThe:=sphere.SinCosD(theta)

	x:=sinThe*e[4] - cosThe*e[3]*cosPhi
	if math.Abs(x) < sphereTolerance {
		x = -sphere.CosD(theta+e[1]) + cosThe*e[3]*(1-cosPhi)
	}
	y:=-cosThe * sinPhi
	var dlng float64
	if x != 0 || y != 0 {
		dlng = sphere.Atan2D(y, x)
	} else {
		dlng = dphi + 180
	}
	lng = e[0] + dlng

	// keep the sign convention of the native pole longitude
	if e[0] >= 0 {
		if lng < 0 {
			lng += 360
		}
	} else if lng > 0 {
		lng -= 360
	}
	if lng > 360 {
		lng -= 360
	} else if lng < -360 {
		lng += 360
	}

	if math.Mod(dphi, 180) == 0 {
		lat = theta + cosPhi*e[1]
		if lat > 90 {
			lat = 180 - lat
		}
		if lat < -90 {
			lat = -180 - lat
		}
		return lng, lat, nil
	}
	z:=sinThe*e[3] + cosThe*e[4]*cosPhi
	if math.Abs(z) > 0.99 {
		a, err:=sphere.AcosD(math.Hypot(x, y))
		if err != nil {
			return lng, 0, err
		}
		return lng, math.Copysign(a, z), nil
	}
	lat, err = sphere.AsinD(z)
	return lng, lat, err
}

// Cylindrical equal area projection with lambda=1
type cylindrical struct {
	params Params
	lin    linear
	frame  EulerFrame
}

func (c *cylindrical) Kind() Kind     { return Cylindrical }
func (c *cylindrical) Params() Params { return c.params.clone() }

func (c *cylindrical) Forward(pixel coord.Point2D) (coord.LonLat, error) {
	x, y:=c.lin.toIntermediate(pixel)
	phi:=x
	theta, err:=sphere.AsinD(sphere.Rad(y))
	if err != nil {
		return coord.LonLat{}, errors.Wrapf(err, "pixel %v beyond the projection boundary", pixel)
	}
	lng, lat, err:=c.frame.sphericalReverse(phi, theta)
	if err != nil {
		return coord.LonLat{}, errors.Wrapf(err, "native (%g, %g)", phi, theta)
	}
	return coord.LonLat{Lon: sphere.NormalizeLon(lng), Lat: lat}, nil
}

func (c *cylindrical) Reverse(sky coord.LonLat) (coord.Point2D, error) {
	phi, theta, err:=c.frame.sphericalForward(sky.Lon, sky.Lat)
	if err != nil {
		return coord.Point2D{}, errors.Wrapf(err, "sky %v", sky)
	}
	x:=phi
	y:=sphere.Deg(sphere.SinD(theta))
	return c.lin.toPixel(x, y), nil
}
