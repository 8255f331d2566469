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
	"math"
	"testing"
)

func TestScaleRotateAxisAligned(t *testing.T) {
	tests:=[]struct {
		rot  float64
		want Transform2D
	}{
		{0, Transform2D{A: -2, E: 3}},
		{90, Transform2D{B: -3, D: -2}},
		{180, Transform2D{A: 2, E: -3}},
		{-90, Transform2D{B: 3, D: 2}},
		{270, Transform2D{B: 3, D: 2}},
	}
	for _, test:=range tests {
		got:=NewScaleRotateTransform2D(-2, 3, test.rot)
		// compare with == so that 6e-17 residues fail, but -0 equals 0
		if got.A!=test.want.A || got.B!=test.want.B || got.D!=test.want.D || got.E!=test.want.E || got.C!=0 || got.F!=0 {
			t.Errorf("NewScaleRotateTransform2D(-2, 3, %g)=%v; want %v", test.rot, got, test.want)
		}
	}
}

func TestScaleRotateOblique(t *testing.T) {
	got:=NewScaleRotateTransform2D(1, 1, 30)
	c, s:=math.Sqrt(3)/2, 0.5
	if math.Abs(got.A-c)>1e-15 || math.Abs(got.B+s)>1e-15 || math.Abs(got.D-s)>1e-15 || math.Abs(got.E-c)>1e-15 {
		t.Errorf("NewScaleRotateTransform2D(1, 1, 30)=%v", got)
	}
	if d:=got.Det(); math.Abs(d-1)>1e-15 { t.Errorf("Det()=%g; want 1", d) }
}

func TestInvert(t *testing.T) {
	tr:=Transform2D{A: -7.3e-5, B: 1.2e-6, C: 3, D: -1.1e-6, E: 7.3e-5, F: -4}
	inv, err:=tr.Invert()
	if err!=nil { t.Fatalf("Invert() err=%v", err) }
	for _, p:=range []Point2D{{0, 0}, {1, 1}, {-512.5, 2048}, {1e4, -3e3}} {
		q:=inv.Apply(tr.Apply(p))
		if d:=Dist2D(p, q); d>1e-6 { t.Errorf("inv(tr(%v))=%v, distance %g", p, q, d) }
	}
}

func TestInvertSingular(t *testing.T) {
	for _, tr:=range []Transform2D{
		{},
		{A: 1, B: 2, D: 2, E: 4},
		{A: math.NaN(), E: 1},
		{A: math.Inf(1), E: 1},
	} {
		if _, err:=tr.Invert(); err==nil { t.Errorf("Invert(%v) err=nil; want error", tr) }
	}
}

func TestLinearTransformAndSlice(t *testing.T) {
	tr:=NewLinearTransform2D(Matrix2x2{CD11: 1, CD12: 2, CD21: 3, CD22: 4})
	got:=tr.ApplySlice([]Point2D{{1, 0}, {0, 1}, {1, 1}})
	want:=[]Point2D{{1, 3}, {2, 4}, {3, 7}}
	for i:=range want {
		if got[i]!=want[i] { t.Errorf("ApplySlice[%d]=%v; want %v", i, got[i], want[i]) }
	}
	if s:=Sub2D(Add2D(want[0], want[1]), want[1]); s!=want[0] { t.Errorf("Sub2D(Add2D())=%v; want %v", s, want[0]) }
	if d:=Dist2D(Point2D{0, 0}, Point2D{3, 4}); d!=5 { t.Errorf("Dist2D=%g; want 5", d) }
}
