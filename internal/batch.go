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
	"fmt"
	"io"

	"github.com/pbnjay/memory"
)

// In-memory size of one grid sample: pixel position, longitude, latitude and residual
const bytesPerSample=5*8

// Split a grid of rows*cols samples into batches of whole rows which fit into the
// permissible amount of memory in MB. A limit of zero uses half the physical memory.
func PrepareBatches(rows, cols int, memLimitMB int64, logWriter io.Writer) (numBatches, batchRows int) {
	physMB:=int64(memory.TotalMemory()/1024/1024)
	if memLimitMB<=0 { memLimitMB=physMB/2 }
	fmt.Fprintf(logWriter, "Physical memory is %d MB, limit for grid projection is %d MB.\n", physMB, memLimitMB)
	if rows<=0 || cols<=0 { return 0, 0 }

	rowBytes:=int64(cols)*bytesPerSample
	maxRows:=memLimitMB*1024*1024/rowBytes
	if maxRows<1 { maxRows=1 }
	if maxRows>int64(rows) { maxRows=int64(rows) }

	numBatches=int((int64(rows)+maxRows-1)/maxRows)
	batchRows=(rows+numBatches-1)/numBatches
	batchMBs:=int64(batchRows)*rowBytes/1024/1024
	fmt.Fprintf(logWriter, "Using %d batch(es) of %d rows each, which needs %d MB\n", numBatches, batchRows, batchMBs)
	return numBatches, batchRows
}
