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
	"bufio"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/metrics"
	"github.com/mlnoga/skyproj/internal/projection"
)

// Projects a regular grid of pixel positions onto the sky
type OpProjectGrid struct {
	Width      int     `json:"width"`      // image width in pixels
	Height     int     `json:"height"`     // image height in pixels
	Step       float64 `json:"step"`       // grid spacing in pixels
	Check      bool    `json:"check"`      // map sky positions back and record residuals
	MemoryMB   int64   `json:"memoryMB"`   // memory limit for batching, 0 for half the physical memory
	MaxThreads int     `json:"maxThreads"` // 0 for one per CPU
}

// Summary of a grid projection. Sample (i,j) sits at pixel (1+i*Step, 1+j*Step)
type Grid struct {
	Cols, Rows    int
	Step          float64
	Batches       int   // number of row batches
	BatchSamples  int   // samples held in memory per batch
	Failed        int64 // forward projection errors
	NotConverged  int64 // reverse projections without convergence, when checking
	ReverseFailed int64 // other reverse projection errors, when checking

	MaxResidual    float64 // round trip distance in pixels
	MedianResidual float64 // median of the per-batch medians, NaN if not checked
}

// Samples of grid rows [from,to), row major. NaN where a projection failed
type gridBatch struct {
	from, to int
	lon, lat []float64
	residual []float64
}

func NewOpProjectGrid(width, height int, step float64) *OpProjectGrid {
	return &OpProjectGrid{
		Width:  width,
		Height: height,
		Step:   step,
	}
}

// Returns the pixel position of grid sample (i,j)
func (g *Grid) Pixel(i, j int) coord.Point2D {
	return coord.Point2D{X: 1 + float64(i)*g.Step, Y: 1 + float64(j)*g.Step}
}

// Projects all grid samples, in batches of rows fitting the memory limit, limiting
// concurrency to MaxThreads. Each finished batch is written to out as comma separated
// x, y, lon, lat lines, unless out is nil.
func (op *OpProjectGrid) Apply(proj projection.Projection, out io.Writer, logWriter io.Writer) (g *Grid, err error) {
	if op.Width<1 || op.Height<1 || !(op.Step>0) {
		return nil, errors.Newf("invalid grid %dx%d with step %g", op.Width, op.Height, op.Step)
	}
	g=&Grid{
		Cols: int(float64(op.Width-1)/op.Step) + 1,
		Rows: int(float64(op.Height-1)/op.Step) + 1,
		Step: op.Step,
	}

	threads:=op.MaxThreads
	if threads<=0 { threads=runtime.NumCPU() }
	fmt.Fprintf(logWriter, "Projecting %dx%d grid samples with %v using %d threads...\n", g.Cols, g.Rows, proj.Kind(), threads)
	numBatches, batchRows:=PrepareBatches(g.Rows, g.Cols, op.MemoryMB, logWriter)
	g.Batches, g.BatchSamples=numBatches, batchRows*g.Cols

	b:=&gridBatch{
		lon:      GetArrayOfFloat64FromPool(g.BatchSamples),
		lat:      GetArrayOfFloat64FromPool(g.BatchSamples),
		residual: GetArrayOfFloat64FromPool(g.BatchSamples),
	}
	defer func() {
		PutArrayOfFloat64IntoPool(b.lon)
		PutArrayOfFloat64IntoPool(b.lat)
		PutArrayOfFloat64IntoPool(b.residual)
	}()

	var bw *bufio.Writer
	if out!=nil {
		bw=bufio.NewWriter(out)
		fmt.Fprintf(bw, "x,y,lon,lat\n")
	}

	var maxResidualMutex sync.Mutex
	batchMedians:=make([]float64, 0, numBatches)
	for k:=0; k<numBatches; k++ {
		b.from=k*batchRows
		b.to=b.from + batchRows
		if b.to>g.Rows { b.to=g.Rows }

		sem:=make(chan bool, threads)
		for j:=b.from; j<b.to; j++ {
			sem <- true
			go func(j int) {
				defer func() { <-sem }()
				res:=op.projectRow(proj, g, b, j)
				maxResidualMutex.Lock()
				if res>g.MaxResidual { g.MaxResidual=res }
				maxResidualMutex.Unlock()
			}(j)
		}
		for i:=0; i<cap(sem); i++ {  // wait for goroutines to finish
			sem <- true
		}

		if op.Check {
			batchMedians=append(batchMedians, MedianFiniteFloat64(b.residual[:(b.to-b.from)*g.Cols]))
		}
		if bw!=nil {
			if err:=g.writeBatchCSV(bw, b); err!=nil { return nil, err }
		}
		if numBatches>1 {
			fmt.Fprintf(logWriter, "Batch %d/%d: rows %d to %d done\n", k+1, numBatches, b.from, b.to-1)
			LogSync()
		}
	}

	fmt.Fprintf(logWriter, "Projected %d samples, %d failed", g.Cols*g.Rows, g.Failed)
	g.MedianResidual=math.NaN()
	if op.Check {
		g.MedianResidual=MedianFiniteFloat64(batchMedians)
		fmt.Fprintf(logWriter, ", %d not converged, %d reverse failed, residual median %.3g max %.3g pixels",
			g.NotConverged, g.ReverseFailed, g.MedianResidual, g.MaxResidual)
	}
	fmt.Fprintf(logWriter, "\n")
	return g, nil
}

// Projects one grid row into the batch, and returns its largest round trip residual
func (op *OpProjectGrid) projectRow(proj projection.Projection, g *Grid, b *gridBatch, j int) (maxRes float64) {
	pixels:=GetArrayOfPoint2DFromPool(g.Cols)
	defer PutArrayOfPoint2DIntoPool(pixels)
	for i:=range pixels {
		pixels[i]=g.Pixel(i, j)
	}

	kind:=proj.Kind()
	offset:=(j-b.from)*g.Cols
	for i, p:=range pixels {
		sky, err:=proj.Forward(p)
		metrics.ObserveProjection(kind, "forward", err)
		b.residual[offset+i]=math.NaN()
		if err!=nil {
			b.lon[offset+i], b.lat[offset+i]=math.NaN(), math.NaN()
			atomic.AddInt64(&g.Failed, 1)
			continue
		}
		b.lon[offset+i], b.lat[offset+i]=sky.Lon, sky.Lat
		if !op.Check { continue }

		back, err:=proj.Reverse(sky)
		metrics.ObserveProjection(kind, "reverse", err)
		if errors.Is(err, projection.ErrNotConverged) {
			atomic.AddInt64(&g.NotConverged, 1)
		} else if err!=nil {
			atomic.AddInt64(&g.ReverseFailed, 1)
			continue
		}
		res:=coord.Dist2D(p, back)
		b.residual[offset+i]=res
		metrics.ResidualPixels.Observe(res)
		if res>maxRes { maxRes=res }
	}
	return maxRes
}

// Writes the rows of one batch as comma separated x, y, lon, lat lines
func (g *Grid) writeBatchCSV(bw *bufio.Writer, b *gridBatch) error {
	for j:=b.from; j<b.to; j++ {
		offset:=(j-b.from)*g.Cols
		for i:=0; i<g.Cols; i++ {
			p:=g.Pixel(i, j)
			fmt.Fprintf(bw, "%g,%g,%.10f,%.10f\n", p.X, p.Y, b.lon[offset+i], b.lat[offset+i])
		}
	}
	return errors.Wrap(bw.Flush(), "writing grid")
}
