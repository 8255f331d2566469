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

// Package projection maps between image pixel coordinates and positions on
// the celestial sphere, for gnomonic, cylindrical equal area, DSS plate and
// TPV distorted gnomonic projections.
package projection

import (
	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
)

// A projection between 1-based image pixel coordinates and sky coordinates in degrees.
// Implementations are immutable and safe for concurrent use.
type Projection interface {
	Kind() Kind
	Params() Params

	// Maps a pixel position to the sky. Longitude is normalized into [0,360).
	Forward(pixel coord.Point2D) (coord.LonLat, error)

	// Maps a sky position to a pixel. Iterative kinds may return a best-effort
	// pixel together with an error matching ErrNotConverged.
	Reverse(sky coord.LonLat) (coord.Point2D, error)
}

// Validates the parameters and builds the projection they describe
func New(p Params) (Projection, error) {
	if err:=p.Validate(); err != nil {
		return nil, err
	}
	p = p.clone()

	switch p.Kind {
	case Gnomonic:
		lin, err:=newLinear(&p)
		if err != nil {
			return nil, err
		}
		return &gnomonic{params: p, lin: lin}, nil
	case Cylindrical:
		lin, err:=newLinear(&p)
		if err != nil {
			return nil, err
		}
		frame, err:=prepare(p.RefSky, p.LonPole, p.LatPole)
		if err != nil {
			return nil, errors.Wrapf(err, "preparing %v projection at %v", p.Kind, p.RefSky)
		}
		return &cylindrical{params: p, lin: lin, frame: frame}, nil
	case Plate:
		return newPlate(p), nil
	case TPV:
		lin, err:=newLinear(&p)
		if err != nil {
			return nil, err
		}
		return &tpv{params: p, lin: lin, pv1: p.Distortion.PV1, pv2: p.Distortion.PV2}, nil
	}
	return nil, invalidf("unknown projection kind %d", int(p.Kind))
}

// Maps a pixel to the sky with a projection built from the given parameters.
// Build the projection once with New when mapping many points.
func Forward(p Params, pixel coord.Point2D) (coord.LonLat, error) {
	proj, err:=New(p)
	if err != nil {
		return coord.LonLat{}, err
	}
	return proj.Forward(pixel)
}

// Maps a sky position to a pixel with a projection built from the given parameters.
// Build the projection once with New when mapping many points.
func Reverse(p Params, sky coord.LonLat) (coord.Point2D, error) {
	proj, err:=New(p)
	if err != nil {
		return coord.Point2D{}, err
	}
	return proj.Reverse(sky)
}

// Linear part shared by all kinds with a CD matrix or scale and rotation.
// Maps pixel offsets from the reference pixel to intermediate degrees and back.
type linear struct {
	refPixel coord.Point2D
	fwd      coord.Transform2D
	inv      coord.Transform2D
}

func newLinear(p *Params) (linear, error) {
	fwd:=p.Linear()
	inv, err:=fwd.Invert()
	if err != nil {
		return linear{}, errors.Mark(errors.Wrap(err, "linear transform"), ErrInvalidParams)
	}
	return linear{refPixel: p.RefPixel, fwd: fwd, inv: inv}, nil
}

// Returns intermediate world coordinates in degrees for the given pixel
func (l *linear) toIntermediate(pixel coord.Point2D) (x, y float64) {
	im:=l.fwd.Apply(coord.Sub2D(pixel, l.refPixel))
	return im.X, im.Y
}

// Returns the pixel for the given intermediate world coordinates in degrees
func (l *linear) toPixel(x, y float64) coord.Point2D {
	return coord.Add2D(l.inv.Apply(coord.Point2D{X: x, Y: y}), l.refPixel)
}
