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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/sphere"
	"gonum.org/v1/gonum/floats/scalar"
)

func unitTanParams() Params {
	return Params{
		Kind:     Gnomonic,
		RefPixel: coord.Point2D{X: 1, Y: 1},
		RefSky:   coord.LonLat{Lon: 0, Lat: 0},
		Scale:    coord.Point2D{X: 1, Y: 1},
	}
}

func TestGnomonicReferencePixel(t *testing.T) {
	for _, tc:=range []Params{tanParams(), tanMatrixParams()} {
		sky, err:=Forward(tc, tc.RefPixel)
		if err!=nil { t.Fatalf("Forward() err=%v", err) }
		if d:=sphere.Distance(sky, tc.RefSky); d>1e-12 { t.Errorf("Forward(%v)=%v; want %v", tc.RefPixel, sky, tc.RefSky) }
		pixel, err:=Reverse(tc, tc.RefSky)
		if err!=nil { t.Fatalf("Reverse() err=%v", err) }
		if d:=coord.Dist2D(pixel, tc.RefPixel); d>1e-9 { t.Errorf("Reverse(%v)=%v; want %v", tc.RefSky, pixel, tc.RefPixel) }
	}
}

func TestGnomonicKnownValues(t *testing.T) {
	p:=unitTanParams()
	tests:=[]struct {
		pixel coord.Point2D
		sky   coord.LonLat
	}{
		{coord.Point2D{X: 2, Y: 1}, coord.LonLat{Lon: 0.9998984794143886, Lat: 0}},
		{coord.Point2D{X: 0, Y: 1}, coord.LonLat{Lon: 359.0001015205856, Lat: 0}},
		{coord.Point2D{X: 1, Y: 2}, coord.LonLat{Lon: 0, Lat: 0.9998984794143886}},
		{coord.Point2D{X: 1 + 10.10279180887973, Y: 1}, coord.LonLat{Lon: 10, Lat: 0}},
	}
	for _, test:=range tests {
		sky, err:=Forward(p, test.pixel)
		if err!=nil { t.Fatalf("Forward() err=%v", err) }
		if !scalar.EqualWithinAbs(sky.Lon, test.sky.Lon, 1e-12) || !scalar.EqualWithinAbs(sky.Lat, test.sky.Lat, 1e-12) {
			t.Errorf("Forward(%v)=%v; want %v", test.pixel, sky, test.sky)
		}
	}
}

func TestGnomonicNotOnImage(t *testing.T) {
	p:=unitTanParams()
	for _, sky:=range []coord.LonLat{{Lon: 90, Lat: 0}, {Lon: 180, Lat: 0}, {Lon: 120, Lat: 10}, {Lon: 0, Lat: -90}} {
		_, err:=Reverse(p, sky)
		if !errors.Is(err, ErrNotOnImage) { t.Errorf("Reverse(%v) err=%v; want ErrNotOnImage", sky, err) }
	}
}

func TestGnomonicPoleReference(t *testing.T) {
	p:=unitTanParams()
	p.RefSky=coord.LonLat{Lon: 0, Lat: 90}
	p.Scale=coord.Point2D{X: -0.001, Y: 0.001}
	for _, sky:=range []coord.LonLat{{Lon: 0, Lat: 89.5}, {Lon: 90, Lat: 89.5}, {Lon: 225, Lat: 89.9}} {
		pixel, err:=Reverse(p, sky)
		if err!=nil { t.Fatalf("Reverse(%v) err=%v", sky, err) }
		back, err:=Forward(p, pixel)
		if err!=nil { t.Fatalf("Forward(%v) err=%v", pixel, err) }
		if d:=sphere.Distance(sky, back); d>skyTolerance { t.Errorf("Forward(Reverse(%v))=%v; want %v", sky, back, sky) }
	}
}
