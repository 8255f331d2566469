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

package sphere

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSinCosExactAtRightAngles(t *testing.T) {
	tests := []struct {
		deg      float64
		sin, cos float64
	}{
		{0, 0, 1},
		{90, 1, 0},
		{180, 0, -1},
		{270, -1, 0},
		{360, 0, 1},
		{-90, -1, 0},
		{-180, 0, -1},
		{-270, 1, 0},
		{450, 1, 0},
		{-720, 0, 1},
	}
	for _, test := range tests {
		if s := SinD(test.deg); s != test.sin {
			t.Errorf("SinD(%g)=%g; want %g", test.deg, s, test.sin)
		}
		if c := CosD(test.deg); c != test.cos {
			t.Errorf("CosD(%g)=%g; want %g", test.deg, c, test.cos)
		}
	}
}

func TestSinCosMatchMath(t *testing.T) {
	for deg := -400.0; deg <= 400; deg += 7.3 {
		r := deg * math.Pi / 180
		if s := SinD(deg); !scalar.EqualWithinAbs(s, math.Sin(r), 1e-15) {
			t.Errorf("SinD(%g)=%g; want %g", deg, s, math.Sin(r))
		}
		if c := CosD(deg); !scalar.EqualWithinAbs(c, math.Cos(r), 1e-15) {
			t.Errorf("CosD(%g)=%g; want %g", deg, c, math.Cos(r))
		}
	}
}

func TestTanD(t *testing.T) {
	tests := []struct{ deg, tan float64 }{
		{0, 0}, {45, 1}, {135, -1}, {180, 0}, {225, 1}, {-45, -1}, {-135, 1},
	}
	for _, test := range tests {
		if v := TanD(test.deg); v != test.tan {
			t.Errorf("TanD(%g)=%g; want %g", test.deg, v, test.tan)
		}
	}
	if v := TanD(30); !scalar.EqualWithinAbs(v, 1/math.Sqrt(3), 1e-15) {
		t.Errorf("TanD(30)=%g; want %g", v, 1/math.Sqrt(3))
	}
}

func TestAtanD(t *testing.T) {
	tests := []struct{ v, deg float64 }{
		{0, 0}, {1, 45}, {-1, -45}, {math.Inf(1), 90}, {math.Inf(-1), -90},
	}
	for _, test := range tests {
		if d := AtanD(test.v); d != test.deg {
			t.Errorf("AtanD(%g)=%g; want %g", test.v, d, test.deg)
		}
	}
	if d := AtanD(math.Sqrt(3)); !scalar.EqualWithinAbs(d, 60, 1e-13) {
		t.Errorf("AtanD(√3)=%g; want 60", d)
	}
	if d := AtanD(math.NaN()); !math.IsNaN(d) {
		t.Errorf("AtanD(NaN)=%g; want NaN", d)
	}
}

func TestInverseClamping(t *testing.T) {
	if v, err := AsinD(1 + 1e-12); err != nil || v != 90 {
		t.Errorf("AsinD(1+1e-12)=%g, %v; want 90, nil", v, err)
	}
	if v, err := AcosD(-1 - 1e-12); err != nil || v != 180 {
		t.Errorf("AcosD(-1-1e-12)=%g, %v; want 180, nil", v, err)
	}
	if v, err := AsinD(0.5); err != nil || !scalar.EqualWithinAbs(v, 30, 1e-12) {
		t.Errorf("AsinD(0.5)=%g, %v; want 30, nil", v, err)
	}
	for _, v := range []float64{1.001, -1.5, math.NaN()} {
		if _, err := AsinD(v); !errors.Is(err, ErrDomain) {
			t.Errorf("AsinD(%g) err=%v; want ErrDomain", v, err)
		}
		if _, err := AcosD(v); !errors.Is(err, ErrDomain) {
			t.Errorf("AcosD(%g) err=%v; want ErrDomain", v, err)
		}
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {360, 0}, {-10, 350}, {725, 5}, {359.5, 359.5}, {-1e-20, 0},
	}
	for _, test := range tests {
		if got := NormalizeLon(test.in); got != test.want {
			t.Errorf("NormalizeLon(%g)=%g; want %g", test.in, got, test.want)
		}
	}
}

func TestDistanceAndBearing(t *testing.T) {
	tests := []struct {
		a, b     coord.LonLat
		dist, pa float64
	}{
		{coord.LonLat{Lon: 10, Lat: 0}, coord.LonLat{Lon: 10, Lat: 1}, 1, 0},
		{coord.LonLat{Lon: 10, Lat: 0}, coord.LonLat{Lon: 11, Lat: 0}, 1, 90},
		{coord.LonLat{Lon: 0, Lat: 0}, coord.LonLat{Lon: 0, Lat: -30}, 30, 180},
		{coord.LonLat{Lon: 0, Lat: 0}, coord.LonLat{Lon: 180, Lat: 0}, 180, 270},
		{coord.LonLat{Lon: 359.5, Lat: 0}, coord.LonLat{Lon: 0.5, Lat: 0}, 1, 90},
	}
	for _, test := range tests {
		if d := Distance(test.a, test.b); !scalar.EqualWithinAbs(d, test.dist, 1e-9) {
			t.Errorf("Distance(%v,%v)=%g; want %g", test.a, test.b, d, test.dist)
		}
		if test.dist == 180 {
			continue // antipodal bearing is undefined
		}
		if pa := Bearing(test.a, test.b); !scalar.EqualWithinAbs(pa, test.pa, 1e-9) {
			t.Errorf("Bearing(%v,%v)=%g; want %g", test.a, test.b, pa, test.pa)
		}
	}
}
