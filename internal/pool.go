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
	"runtime"
	"sync"

	"github.com/mlnoga/skyproj/internal/coord"
)

// Pool of constant sized arrays of given type, to reduce memory allocation overhead
type slicePool[T any] struct {
	sync.RWMutex
	m map[int]*sync.Pool
}

func newSlicePool[T any]() *slicePool[T] {
	return &slicePool[T]{m: make(map[int]*sync.Pool)}
}

// Returns a pool for arrays of the given size
func (sp *slicePool[T]) sized(size int) *sync.Pool {
	sp.RLock()
	pool:=sp.m[size]
	sp.RUnlock()
	if pool!=nil { return pool }

	sp.Lock()
	defer sp.Unlock()
	if pool=sp.m[size]; pool==nil {
		pool=&sync.Pool{
			New: func() interface{} {
				return make([]T, size)
			},
		}
		sp.m[size]=pool
	}
	return pool
}

func (sp *slicePool[T]) get(size int) []T {
	return sp.sized(size).Get().([]T)
}

func (sp *slicePool[T]) put(arr []T) {
	sp.sized(cap(arr)).Put(arr[:cap(arr)])
}

func (sp *slicePool[T]) clear() {
	sp.Lock()
	sp.m=make(map[int]*sync.Pool)
	sp.Unlock()
}

var poolFloat64=newSlicePool[float64]()
var poolPoint2D=newSlicePool[coord.Point2D]()

// Clears all memory pools and triggers garbage collection
func ClearPools() {
	poolFloat64.clear()
	poolPoint2D.clear()
	runtime.GC()
}

// Retrieves an array of given size from pool. Contents are undefined
func GetArrayOfFloat64FromPool(size int) []float64 {
	return poolFloat64.get(size)
}

// Returns an array to the pool
func PutArrayOfFloat64IntoPool(arr []float64) {
	poolFloat64.put(arr)
}

// Retrieves an array of given size from pool. Contents are undefined
func GetArrayOfPoint2DFromPool(size int) []coord.Point2D {
	return poolPoint2D.get(size)
}

// Returns an array to the pool
func PutArrayOfPoint2DIntoPool(arr []coord.Point2D) {
	poolPoint2D.put(arr)
}
