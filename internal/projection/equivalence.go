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

// Returns true if a and b describe the same projection, i.e. have the same kind
// and bit-identical values for all parameters that kind uses. Values are compared
// exactly as they are copied from metadata, not re-derived.
func Same(a, b Params) bool {
	if a.Kind != b.Kind {
		return false
	}
	if !samePoint(a.RefPixel, b.RefPixel) {
		return false
	}

	switch a.Kind {
	case Plate:
		if a.Plate == nil || b.Plate == nil {
			return a.Plate == b.Plate
		}
		return samePlate(a.Plate, b.Plate)
	case Gnomonic, TPV, Cylindrical:
		if !sameLonLat(a.RefSky, b.RefSky) || !sameLinear(&a, &b) {
			return false
		}
	}

	switch a.Kind {
	case Cylindrical:
		return sameOptional(a.LonPole, b.LonPole) && sameOptional(a.LatPole, b.LatPole)
	case TPV:
		if a.Distortion == nil || b.Distortion == nil {
			return a.Distortion == b.Distortion
		}
		return sameDistortion(a.Distortion, b.Distortion)
	}
	return true
}

func sameLinear(a, b *Params) bool {
	if a.UsingMatrix() != b.UsingMatrix() {
		return false
	}
	if a.UsingMatrix() {
		ma, mb:=a.Matrix, b.Matrix
		return same(ma.CD11, mb.CD11) && same(ma.CD12, mb.CD12) &&
			same(ma.CD21, mb.CD21) && same(ma.CD22, mb.CD22)
	}
	return samePoint(a.Scale, b.Scale) && same(a.Rotation, b.Rotation)
}

func samePlate(a, b *PlateModel) bool {
	if !sameLonLat(a.Center, b.Center) || !same(a.Scale, b.Scale) ||
		!samePoint(a.PixelSize, b.PixelSize) || !samePoint(a.PixelOffset, b.PixelOffset) {
		return false
	}
	return sameSlice(a.PlateOffset[:], b.PlateOffset[:]) &&
		sameSlice(a.XCoeff[:], b.XCoeff[:]) &&
		sameSlice(a.YCoeff[:], b.YCoeff[:])
}

func sameDistortion(a, b *DistortionModel) bool {
	return a.Order() == b.Order() && sameSlice(a.PV1, b.PV1) && sameSlice(a.PV2, b.PV2)
}

func sameOptional(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return same(*a, *b)
}

func sameSlice(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i:=range a {
		if !same(a[i], b[i]) {
			return false
		}
	}
	return true
}

func samePoint(a, b coord.Point2D) bool {
	return same(a.X, b.X) && same(a.Y, b.Y)
}

func sameLonLat(a, b coord.LonLat) bool {
	return same(a.Lon, b.Lon) && same(a.Lat, b.Lat)
}

// Bit-for-bit equality
func same(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
