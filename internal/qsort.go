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
	"math"
)


// Select median of an array of float64, the upper one for even lengths.
// Partially reorders the array. Array must not contain IEEE NaN
func QSelectMedianFloat64(a []float64) float64 {
	return QSelectFloat64(a, (len(a)>>1)+1)
}


// Select kth lowest element, 1-based, from an array of float64. Partially reorders the array.
// Array must not contain IEEE NaN
func QSelectFloat64(a []float64, k int) float64 {
	left, right:=0, len(a)-1
	for left<right {
		// Hoare partition around the middle element
		pivot:=a[(left+right)>>1]
		l, r:=left-1, right+1
		for {
			for l++; a[l]<pivot; l++ {}
			for r--; a[r]>pivot; r-- {}
			if l>=r { break } // index in r
			a[l], a[r]=a[r], a[l]
		}

		offset:=r-left+1
		if k<=offset {
			right=r
		} else {
			left=r+1
			k-=offset
		}
	}
	return a[left]
}


// Returns the median of the finite values in a, or NaN if there are none. Leaves a unchanged
func MedianFiniteFloat64(a []float64) float64 {
	buf:=GetArrayOfFloat64FromPool(len(a))
	defer PutArrayOfFloat64IntoPool(buf)
	n:=0
	for _, v:=range a {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			buf[n]=v
			n++
		}
	}
	if n==0 { return math.NaN() }
	return QSelectMedianFloat64(buf[:n])
}
