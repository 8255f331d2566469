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

// Package healpix partitions the sphere into 12*nside² equal area pixels
// and numbers them in the RING or NESTED scheme.
package healpix

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/soniakeys/unit"
)

// Maximum resolution order, nside=2^29
const MaxOrder = 29

// Input outside the valid domain
var ErrRange = errors.New("value out of range")

// Pixel numbering scheme
type Scheme int

const (
	Ring Scheme = iota
	Nested
)

func (s Scheme) String() string {
	switch s {
	case Ring:
		return "RING"
	case Nested:
		return "NESTED"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// Parses a scheme name, RING or NESTED
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RING":
		return Ring, nil
	case "NEST", "NESTED":
		return Nested, nil
	}
	return Ring, errors.Mark(errors.Newf("unknown HEALPix scheme %q", s), ErrRange)
}

// A HEALPix tesselation at a fixed resolution. Immutable and safe for concurrent use.
type Index struct {
	nside  int64
	order  int
	nl2    int64 // 2*nside
	nl3    int64 // 3*nside
	nl4    int64 // 4*nside
	npface int64 // pixels per base face
	ncap   int64 // pixels in the north polar cap
	npix   int64
	fact1  float64
	fact2  float64

	// bit interleaving tables, one byte at a time
	compressTable   [256]uint16 // even bits to low byte, odd bits to high byte
	uncompressTable [256]uint16 // bits spread to even positions
}

// Creates an index for the given resolution, which must be a power of two in [1, 2^29]
func NewIndex(nside int) (*Index, error) {
	if nside<1 || nside>1<<MaxOrder || nside&(nside-1)!=0 {
		return nil, errors.Mark(errors.Newf("nside %d is not a power of two in [1, 2^%d]", nside, MaxOrder), ErrRange)
	}
	n:=int64(nside)
	idx:=&Index{
		nside:  n,
		order:  bits.TrailingZeros64(uint64(n)),
		nl2:    2 * n,
		nl3:    3 * n,
		nl4:    4 * n,
		npface: n * n,
		ncap:   2 * n * (n - 1),
		npix:   12 * n * n,
	}
	idx.fact2=4 / float64(idx.npix)
	idx.fact1=float64(idx.nl2) * idx.fact2

	for m:=0; m<256; m++ {
		var c, u uint16
		for b:=uint(0); b<4; b++ {
			c|=uint16((m>>(2*b))&1) << b
			c|=uint16((m>>(2*b+1))&1) << (8 + b)
		}
		for b:=uint(0); b<8; b++ {
			u|=uint16((m>>b)&1) << (2 * b)
		}
		idx.compressTable[m]=c
		idx.uncompressTable[m]=u
	}
	return idx, nil
}

// Creates an index for resolution order, nside=2^order
func NewIndexOrder(order int) (*Index, error) {
	if order<0 || order>MaxOrder {
		return nil, errors.Mark(errors.Newf("order %d outside [0, %d]", order, MaxOrder), ErrRange)
	}
	return NewIndex(1 << order)
}

func (idx *Index) Nside() int    { return int(idx.nside) }
func (idx *Index) Order() int    { return idx.order }
func (idx *Index) Npix() uint64  { return uint64(idx.npix) }

// Approximate pixel size in degrees
func (idx *Index) Resolution() float64 {
	return unit.Angle(math.Sqrt(4 * math.Pi / float64(idx.npix))).Deg()
}

// Returns the pixel containing the given longitude and latitude in degrees.
// Longitude must lie in [0,360], latitude in [-90,90]. Longitude 360 is the same as 0.
func (idx *Index) AngleToPixel(lon, lat float64, s Scheme) (uint64, error) {
	if !(lat>=-90 && lat<=90) {
		return 0, errors.Mark(errors.Newf("latitude %g outside [-90, 90]", lat), ErrRange)
	}
	if !(lon>=0 && lon<=360) {
		return 0, errors.Mark(errors.Newf("longitude %g outside [0, 360]", lon), ErrRange)
	}
	if lon==360 {
		lon=0
	}
	theta:=unit.AngleFromDeg(90 - lat).Rad()
	phi:=unit.AngleFromDeg(lon).Rad()
	switch s {
	case Ring:
		return uint64(idx.ringFromZPhi(math.Cos(theta), math.Sin(theta), phi)), nil
	case Nested:
		return uint64(idx.nestFromZPhi(math.Cos(theta), math.Sin(theta), phi)), nil
	}
	return 0, errors.Mark(errors.Newf("unknown scheme %v", s), ErrRange)
}

// Returns the RING pixel for colatitude theta in [0,π] and longitude phi in [0,2π], in radians
func (idx *Index) AngToPixRing(theta, phi float64) (uint64, error) {
	if err:=checkAngles(theta, phi); err!=nil {
		return 0, err
	}
	return uint64(idx.ringFromZPhi(math.Cos(theta), math.Sin(theta), wrapPhi(phi))), nil
}

// Returns the NESTED pixel for colatitude theta in [0,π] and longitude phi in [0,2π], in radians
func (idx *Index) AngToPixNest(theta, phi float64) (uint64, error) {
	if err:=checkAngles(theta, phi); err!=nil {
		return 0, err
	}
	return uint64(idx.nestFromZPhi(math.Cos(theta), math.Sin(theta), wrapPhi(phi))), nil
}

func checkAngles(theta, phi float64) error {
	if !(theta>=0 && theta<=math.Pi) {
		return errors.Mark(errors.Newf("colatitude %g outside [0, π]", theta), ErrRange)
	}
	if !(phi>=0 && phi<=2*math.Pi) {
		return errors.Mark(errors.Newf("longitude %g outside [0, 2π]", phi), ErrRange)
	}
	return nil
}

func wrapPhi(phi float64) float64 {
	if phi>=2*math.Pi {
		return 0
	}
	return phi
}

// Converts a NESTED pixel index to RING. Panics if the index is not valid for this
// resolution, use Convert to get an error instead.
func (idx *Index) NestToRing(pix uint64) uint64 {
	idx.mustBeValid(pix)
	x, y, face:=idx.nestToXYF(int64(pix))
	return uint64(idx.xyfToRing(x, y, face))
}

// Converts a RING pixel index to NESTED. Panics if the index is not valid for this
// resolution, use Convert to get an error instead.
func (idx *Index) RingToNest(pix uint64) uint64 {
	idx.mustBeValid(pix)
	x, y, face:=idx.ringToXYF(int64(pix))
	return uint64(idx.xyfToNest(x, y, face))
}

func (idx *Index) mustBeValid(pix uint64) {
	if pix>=uint64(idx.npix) {
		panic(fmt.Sprintf("healpix: pixel %d outside [0, %d) for nside %d", pix, idx.npix, idx.nside))
	}
}

// Checks that pix is a valid index for this resolution
func (idx *Index) CheckPixel(pix uint64) error {
	if pix>=uint64(idx.npix) {
		return errors.Mark(errors.Newf("pixel %d outside [0, %d) for nside %d", pix, idx.npix, idx.nside), ErrRange)
	}
	return nil
}

// Returns the longitude and latitude in degrees of the centre of the given pixel
func (idx *Index) PixelToAngle(pix uint64, s Scheme) (lon, lat float64, err error) {
	if err:=idx.CheckPixel(pix); err!=nil {
		return 0, 0, err
	}
	switch s {
	case Ring:
	case Nested:
		pix=idx.NestToRing(pix)
	default:
		return 0, 0, errors.Mark(errors.Newf("unknown scheme %v", s), ErrRange)
	}
	z, sth, phi:=idx.ringToZPhi(int64(pix))
	return unit.Angle(phi).Deg(), 90 - unit.Angle(math.Atan2(sth, z)).Deg(), nil
}

// Returns colatitude and longitude in radians of the centre of the given RING pixel
func (idx *Index) PixToAngRing(pix uint64) (theta, phi float64, err error) {
	if err:=idx.CheckPixel(pix); err!=nil {
		return 0, 0, err
	}
	z, sth, phi:=idx.ringToZPhi(int64(pix))
	return math.Atan2(sth, z), phi, nil
}

// Returns colatitude and longitude in radians of the centre of the given NESTED pixel
func (idx *Index) PixToAngNest(pix uint64) (theta, phi float64, err error) {
	if err:=idx.CheckPixel(pix); err!=nil {
		return 0, 0, err
	}
	return idx.PixToAngRing(idx.NestToRing(pix))
}

// Converts a pixel index between schemes
func (idx *Index) Convert(pix uint64, from, to Scheme) (uint64, error) {
	if err:=idx.CheckPixel(pix); err!=nil {
		return 0, err
	}
	switch {
	case from==to:
		return pix, nil
	case from==Nested && to==Ring:
		return idx.NestToRing(pix), nil
	case from==Ring && to==Nested:
		return idx.RingToNest(pix), nil
	}
	return 0, errors.Mark(errors.Newf("cannot convert from %v to %v", from, to), ErrRange)
}
