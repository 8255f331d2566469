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



package internal

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/metrics"
	"github.com/mlnoga/skyproj/internal/projection"
)

// Timings and error counts of mapping pixels to the sky and back
type BenchResult struct {
	Points        int
	Forward       time.Duration
	Reverse       time.Duration
	ForwardFailed int
	ReverseFailed int // excluding non-convergence
	NotConverged  int
	Reversed      int // sky positions mapped back, which excludes forward failures
	MaxResidual   float64
}

// Maps all pixels to the sky, then maps the successful ones back and records the
// largest round trip distance in pixels
func BenchProjection(proj projection.Projection, pixels []coord.Point2D) (r BenchResult) {
	r.Points=len(pixels)
	kind:=proj.Kind()
	skies:=make([]coord.LonLat, len(pixels))
	ok:=make([]bool, len(pixels))

	t0:=time.Now()
	for i, p:=range pixels {
		sky, err:=proj.Forward(p)
		metrics.ObserveProjection(kind, "forward", err)
		if err!=nil {
			r.ForwardFailed++
			continue
		}
		skies[i], ok[i]=sky, true
	}
	r.Forward=time.Since(t0)

	t0=time.Now()
	for i, s:=range skies {
		if !ok[i] { continue }
		back, err:=proj.Reverse(s)
		metrics.ObserveProjection(kind, "reverse", err)
		r.Reversed++
		if errors.Is(err, projection.ErrNotConverged) {
			r.NotConverged++
		} else if err!=nil {
			r.ReverseFailed++
			continue
		}
		if d:=coord.Dist2D(back, pixels[i]); d>r.MaxResidual { r.MaxResidual=d }
	}
	r.Reverse=time.Since(t0)
	return r
}
