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
	"testing"

	"github.com/mlnoga/skyproj/internal/coord"
)

func nextUp(v float64) float64 {
	return math.Nextafter(v, math.Inf(1))
}

func TestSameIsReflexive(t *testing.T) {
	for _, tc:=range roundTripCases {
		if !Same(tc.params, tc.params.clone()) { t.Errorf("%s: Same(p, copy of p)=false; want true", tc.name) }
	}
}

func TestSameDetectsDifferences(t *testing.T) {
	lonPole:=180.0
	tests:=[]struct {
		name   string
		a      Params
		mutate func(p *Params)
	}{
		{"kind", tanParams(), func(p *Params) { p.Kind=Cylindrical }},
		{"refPixel", tanParams(), func(p *Params) { p.RefPixel.X=nextUp(p.RefPixel.X) }},
		{"refSky", tanParams(), func(p *Params) { p.RefSky.Lat=nextUp(p.RefSky.Lat) }},
		{"scale", tanParams(), func(p *Params) { p.Scale.Y=nextUp(p.Scale.Y) }},
		{"rotation", tanParams(), func(p *Params) { p.Rotation=nextUp(p.Rotation) }},
		{"matrixVsScale", tanParams(), func(p *Params) { p.Matrix=&coord.Matrix2x2{CD11: -2.8e-4, CD22: 2.8e-4} }},
		{"matrix", tanMatrixParams(), func(p *Params) { p.Matrix.CD21=nextUp(p.Matrix.CD21) }},
		{"lonPole", ceaParams(), func(p *Params) { p.LonPole=&lonPole }},
		{"plateCentre", plateParams(), func(p *Params) { p.Plate.Center.Lon=nextUp(p.Plate.Center.Lon) }},
		{"plateOffset", plateParams(), func(p *Params) { p.Plate.PlateOffset[4]=1e-300 }},
		{"unusedXCoeff", plateParams(), func(p *Params) { p.Plate.XCoeff[19]=1 }},
		{"yCoeff", plateParams(), func(p *Params) { p.Plate.YCoeff[12]=nextUp(p.Plate.YCoeff[12]) }},
		{"pixelSize", plateParams(), func(p *Params) { p.Plate.PixelSize.X=25 }},
		{"pv", tpvParams(), func(p *Params) { p.Distortion.PV2[11]=nextUp(p.Distortion.PV2[11]) }},
		{"order", tpvParams(), func(p *Params) { p.Distortion.PV1=append(p.Distortion.PV1, 0, 0, 0, 0, 0) }},
	}
	for _, test:=range tests {
		b:=test.a.clone()
		test.mutate(&b)
		if Same(test.a, b) { t.Errorf("%s: Same()=true; want false", test.name) }
		if Same(b, test.a) { t.Errorf("%s: Same() reversed=true; want false", test.name) }
	}
}

func TestSameIgnoresUnusedFields(t *testing.T) {
	// plate projections are fully described by their plate model and reference pixel
	a:=plateParams()
	b:=a.clone()
	b.Scale=coord.Point2D{X: 1, Y: 1}
	b.Rotation=45
	if !Same(a, b) { t.Errorf("Same(plate with different CDELT)=false; want true") }

	// pole overrides only matter for cylindrical projections
	lonPole:=180.0
	c:=tanParams()
	d:=c.clone()
	d.LonPole=&lonPole
	if !Same(c, d) { t.Errorf("Same(TAN with LONPOLE)=false; want true") }
}
