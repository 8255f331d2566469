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

package healpix

import (
	"math"
)

const (
	twoThirds = 2.0 / 3.0
	halfPi    = math.Pi / 2
)

// Ring number of the southern vertex of each base face, in units of nside
var jrll=[12]int64{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}

// Longitude of the southern vertex of each base face, in units of π/4
var jpll=[12]int64{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}

// Returns the distance of a polar cap point from its pole, in units of the ring spacing.
// Close to the pole it is taken from sth=sin(theta), as 1-|z| has lost precision there.
func (idx *Index) capDistance(za, sth float64) float64 {
	if za>0.99 {
		return float64(idx.nside) * sth / math.Sqrt((1+za)/3)
	}
	return float64(idx.nside) * math.Sqrt(3*(1-za))
}

// Returns the RING pixel for z=cos(theta), sth=sin(theta) and longitude phi in [0,2π)
func (idx *Index) ringFromZPhi(z, sth, phi float64) int64 {
	za:=math.Abs(z)
	tt:=math.Mod(phi/halfPi, 4) // in [0,4)
	if tt<0 { tt+=4 }
	n:=idx.nside

	if za<=twoThirds {
		// equatorial belt
		temp1:=float64(n) * (0.5 + tt)
		temp2:=float64(n) * z * 0.75
		jp:=int64(temp1 - temp2) // index of ascending edge line
		jm:=int64(temp1 + temp2) // index of descending edge line

		ir:=n + 1 + jp - jm // ring number counted from z=2/3, in [1, 2n+1]
		kshift:=1 - (ir & 1)
		t1:=jp + jm - n + kshift + 1 + 2*idx.nl4 // kept positive for the shift
		ip:=(t1 >> 1) % idx.nl4
		return idx.ncap + (ir-1)*idx.nl4 + ip
	}

	// polar caps
	tp:=tt - math.Floor(tt)
	tmp:=idx.capDistance(za, sth)
	jp:=int64(tp * tmp)       // increasing edge line index
	jm:=int64((1 - tp) * tmp) // decreasing edge line index

	ir:=jp + jm + 1 // ring number counted from the closest pole
	ip:=int64(tt * float64(ir))
	ip=imod(ip, 4*ir)
	if z>0 {
		return 2*ir*(ir-1) + ip
	}
	return idx.npix - 2*ir*(ir+1) + ip
}

// Returns the NESTED pixel for z=cos(theta), sth=sin(theta) and longitude phi in [0,2π)
func (idx *Index) nestFromZPhi(z, sth, phi float64) int64 {
	za:=math.Abs(z)
	tt:=math.Mod(phi/halfPi, 4)
	if tt<0 { tt+=4 }
	n:=idx.nside
	var face, ix, iy int64

	if za<=twoThirds {
		temp1:=float64(n) * (0.5 + tt)
		temp2:=float64(n) * z * 0.75
		jp:=int64(temp1 - temp2)
		jm:=int64(temp1 + temp2)
		ifp:=jp >> uint(idx.order) // in {0,4}
		ifm:=jm >> uint(idx.order)
		switch {
		case ifp==ifm:
			face=ifp | 4
		case ifp<ifm:
			face=ifp
		default:
			face=ifm + 8
		}
		ix=jm & (n - 1)
		iy=n - (jp & (n - 1)) - 1
	} else {
		ntt:=int64(tt)
		if ntt>=4 { ntt=3 }
		tp:=tt - float64(ntt)
		tmp:=idx.capDistance(za, sth)
		jp:=int64(tp * tmp)
		jm:=int64((1 - tp) * tmp)
		if jp>n-1 { jp=n - 1 }
		if jm>n-1 { jm=n - 1 }
		if z>=0 {
			face=ntt
			ix=n - jm - 1
			iy=n - jp - 1
		} else {
			face=ntt + 8
			ix=jp
			iy=jm
		}
	}
	return idx.xyfToNest(ix, iy, face)
}

// Returns z=cos(theta), sth=sin(theta) and phi in radians of the centre of a RING pixel
func (idx *Index) ringToZPhi(pix int64) (z, sth, phi float64) {
	n:=idx.nside
	if pix<idx.ncap {
		// north polar cap
		iring:=(1 + isqrt(1+2*pix)) >> 1
		iphi:=pix + 1 - 2*iring*(iring-1)
		tmp:=float64(iring*iring) * idx.fact2 // 1-z
		z=1 - tmp
		sth=math.Sqrt(tmp * (2 - tmp))
		phi=(float64(iphi) - 0.5) * halfPi / float64(iring)
		return z, sth, phi
	}
	if pix<idx.npix-idx.ncap {
		// equatorial belt
		ip:=pix - idx.ncap
		iring:=ip/idx.nl4 + n // counted from the north pole
		iphi:=ip%idx.nl4 + 1
		fodd:=0.5
		if (iring+n)&1!=0 { fodd=1 }
		z=float64(idx.nl2-iring) * idx.fact1
		sth=math.Sqrt((1 - z) * (1 + z))
		phi=(float64(iphi) - fodd) * math.Pi / float64(idx.nl2)
		return z, sth, phi
	}
	// south polar cap
	ip:=idx.npix - pix
	iring:=(1 + isqrt(2*ip-1)) >> 1 // counted from the south pole
	iphi:=4*iring + 1 - (ip - 2*iring*(iring-1))
	tmp:=float64(iring*iring) * idx.fact2 // 1+z
	z=tmp - 1
	sth=math.Sqrt(tmp * (2 - tmp))
	phi=(float64(iphi) - 0.5) * halfPi / float64(iring)
	return z, sth, phi
}

// Decomposes a NESTED pixel into face-local coordinates and base face
func (idx *Index) nestToXYF(pix int64) (x, y, face int64) {
	face=pix >> uint(2*idx.order)
	x, y=idx.compress(pix & (idx.npface - 1))
	return x, y, face
}

// Composes a NESTED pixel from face-local coordinates and base face
func (idx *Index) xyfToNest(x, y, face int64) int64 {
	return face<<uint(2*idx.order) + idx.spread(x) + idx.spread(y)<<1
}

// Decomposes a RING pixel into face-local coordinates and base face
func (idx *Index) ringToXYF(pix int64) (x, y, face int64) {
	n:=idx.nside
	var iring, iphi, kshift, nr int64

	if pix<idx.ncap {
		// north polar cap
		iring=(1 + isqrt(1+2*pix)) >> 1
		iphi=pix + 1 - 2*iring*(iring-1)
		kshift=0
		nr=iring
		face=(iphi - 1) / nr
	} else if pix<idx.npix-idx.ncap {
		// equatorial belt
		ip:=pix - idx.ncap
		tmp:=ip >> uint(idx.order+2) // ip / (4n)
		iring=tmp + n
		iphi=ip - tmp*idx.nl4 + 1
		kshift=(iring + n) & 1
		nr=n
		ire:=tmp + 1
		irm:=idx.nl2 + 2 - ire
		ifm:=(iphi - ire/2 + n - 1) >> uint(idx.order)
		ifp:=(iphi - irm/2 + n - 1) >> uint(idx.order)
		switch {
		case ifp==ifm:
			face=ifp | 4
		case ifp<ifm:
			face=ifp
		default:
			face=ifm + 8
		}
	} else {
		// south polar cap
		ip:=idx.npix - pix
		iring=(1 + isqrt(2*ip-1)) >> 1
		iphi=4*iring + 1 - (ip - 2*iring*(iring-1))
		kshift=0
		nr=iring
		iring=2*idx.nl2 - iring
		face=(iphi-1)/nr + 8
	}

	irt:=iring - jrll[face]*n + 1
	ipt:=2*iphi - jpll[face]*nr - kshift - 1
	if ipt>=idx.nl2 { ipt-=8 * n }

	x=(ipt - irt) >> 1
	y=(-ipt - irt) >> 1
	return x, y, face
}

// Composes a RING pixel from face-local coordinates and base face
func (idx *Index) xyfToRing(x, y, face int64) int64 {
	n:=idx.nside
	jr:=jrll[face]*n - x - y - 1 // ring number counted from the north pole

	var nr, kshift, startpix int64
	switch {
	case jr<n:
		// north polar cap
		nr=jr
		startpix=2 * nr * (nr - 1)
		kshift=0
	case jr>idx.nl3:
		// south polar cap
		nr=idx.nl4 - jr
		startpix=idx.npix - 2*(nr+1)*nr
		kshift=0
	default:
		// equatorial belt
		nr=n
		startpix=idx.ncap + (jr-n)*idx.nl4
		kshift=(jr - n) & 1
	}

	jp:=(jpll[face]*nr + x - y + 1 + kshift) / 2
	if jp>idx.nl4 {
		jp-=idx.nl4
	} else if jp<1 {
		jp+=idx.nl4
	}
	return startpix + jp - 1
}

// Interleaves the bits of v with zeros, bit i moving to bit 2i
func (idx *Index) spread(v int64) int64 {
	var r int64
	for shift:=uint(0); v!=0; shift+=16 {
		r|=int64(idx.uncompressTable[v&0xff]) << shift
		v>>=8
	}
	return r
}

// Splits an interleaved value into its even bits x and odd bits y
func (idx *Index) compress(v int64) (x, y int64) {
	for shift:=uint(0); v!=0; shift+=4 {
		c:=idx.compressTable[v&0xff]
		x|=int64(c&0xf) << shift
		y|=int64(c>>8) << shift
		v>>=8
	}
	return x, y
}

// Integer square root, exact for all non-negative v
func isqrt(v int64) int64 {
	r:=int64(math.Sqrt(float64(v) + 0.5))
	for r*r>v { r-- }
	for (r+1)*(r+1)<=v { r++ }
	return r
}

// Non-negative remainder
func imod(a, m int64) int64 {
	r:=a % m
	if r<0 { r+=m }
	return r
}
