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
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/projection"
)

func gridProjection(t *testing.T, kind projection.Kind) projection.Projection {
	p:=projection.Params{
		Kind:     kind,
		RefPixel: coord.Point2D{X: 50.5, Y: 40.5},
		RefSky:   coord.LonLat{Lon: 83.8, Lat: -5.4},
		Scale:    coord.Point2D{X: -1e-3, Y: 1e-3},
		Rotation: 7,
	}
	if kind==projection.TPV {
		p.Distortion=&projection.DistortionModel{
			PV1: []float64{0, 1, 0, 0, 1e-3, 0, 0, 2e-2, 0, 0, 0, 0},
			PV2: []float64{0, 1, 0, 0, 0, -1e-3, 0, 1e-2, 0, 0, 0, 0},
		}
	}
	proj, err:=projection.New(p)
	if err!=nil { t.Fatalf("projection.New() err=%v", err) }
	return proj
}

// Returns the CSV lines written by a grid projection, with a header check
func gridLines(t *testing.T, buf *bytes.Buffer) []string {
	lines:=strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines)==0 || lines[0]!="x,y,lon,lat" { t.Fatalf("CSV header %q; want x,y,lon,lat", lines[0]) }
	return lines[1:]
}

func TestProjectGrid(t *testing.T) {
	for _, kind:=range []projection.Kind{projection.Gnomonic, projection.Cylindrical, projection.TPV} {
		proj:=gridProjection(t, kind)
		op:=NewOpProjectGrid(100, 80, 10)
		op.Check=true
		op.MaxThreads=3
		op.MemoryMB=1
		var buf bytes.Buffer
		g, err:=op.Apply(proj, &buf, io.Discard)
		if err!=nil { t.Fatalf("%v: Apply() err=%v", kind, err) }
		if g.Cols!=10 || g.Rows!=8 { t.Fatalf("%v: grid %dx%d; want 10x8", kind, g.Cols, g.Rows) }
		if g.Failed!=0 || g.NotConverged!=0 || g.ReverseFailed!=0 {
			t.Errorf("%v: failed=%d notConverged=%d reverseFailed=%d; want 0 0 0", kind, g.Failed, g.NotConverged, g.ReverseFailed)
		}
		if g.MaxResidual>1e-6 { t.Errorf("%v: max residual %g; want <= 1e-6", kind, g.MaxResidual) }
		if !(g.MedianResidual<=g.MaxResidual) { t.Errorf("%v: median residual %g above max %g", kind, g.MedianResidual, g.MaxResidual) }

		lines:=gridLines(t, &buf)
		if len(lines)!=80 { t.Fatalf("%v: %d samples written; want 80", kind, len(lines)) }
		for _, ij:=range [][2]int{{0, 0}, {9, 7}, {4, 3}} {
			p:=g.Pixel(ij[0], ij[1])
			want, _:=proj.Forward(p)
			wantLine:=fmt.Sprintf("%g,%g,%.10f,%.10f", p.X, p.Y, want.Lon, want.Lat)
			if got:=lines[ij[1]*g.Cols+ij[0]]; got!=wantLine { t.Errorf("%v: sample %v=%q; want %q", kind, ij, got, wantLine) }
		}
	}
}

func TestProjectGridRejectsEmptyGrid(t *testing.T) {
	proj:=gridProjection(t, projection.Gnomonic)
	for _, op:=range []*OpProjectGrid{NewOpProjectGrid(0, 10, 1), NewOpProjectGrid(10, 10, 0), NewOpProjectGrid(10, -1, 1)} {
		if _, err:=op.Apply(proj, nil, io.Discard); err==nil { t.Errorf("Apply(%+v) err=nil; want error", *op) }
	}
}

func TestGridCSVOutput(t *testing.T) {
	var buf bytes.Buffer
	if _, err:=NewOpProjectGrid(3, 2, 1).Apply(gridProjection(t, projection.Gnomonic), &buf, io.Discard); err!=nil { t.Fatalf("Apply() err=%v", err) }
	lines:=gridLines(t, &buf)
	if len(lines)!=6 { t.Fatalf("Apply wrote %q; want header and 6 samples", buf.String()) }
	if !strings.HasPrefix(lines[5], "3,2,") { t.Errorf("last line %q; want pixel (3,2)", lines[5]) }

	g, err:=NewOpProjectGrid(3, 2, 1).Apply(gridProjection(t, projection.Gnomonic), nil, io.Discard)
	if err!=nil || g.Cols*g.Rows!=6 { t.Errorf("Apply without output=%+v, %v; want 6 samples", g, err) }
}

func TestProjectGridBoundsBatchMemory(t *testing.T) {
	proj:=gridProjection(t, projection.Gnomonic)
	op:=NewOpProjectGrid(400, 400, 1)
	op.Check=true
	op.MemoryMB=1
	var buf bytes.Buffer
	g, err:=op.Apply(proj, &buf, io.Discard)
	if err!=nil { t.Fatalf("Apply() err=%v", err) }
	if g.Batches<2 { t.Errorf("%d batches; want several", g.Batches) }
	if n:=int64(g.BatchSamples)*bytesPerSample; n>1024*1024 { t.Errorf("batch holds %d bytes; want <= 1 MB", n) }
	if g.BatchSamples>=g.Cols*g.Rows { t.Errorf("batch holds %d of %d samples; want fewer", g.BatchSamples, g.Cols*g.Rows) }
	if g.MaxResidual>1e-6 { t.Errorf("max residual %g; want <= 1e-6", g.MaxResidual) }

	// batches are streamed in row order
	lines:=gridLines(t, &buf)
	if len(lines)!=g.Cols*g.Rows { t.Fatalf("%d samples written; want %d", len(lines), g.Cols*g.Rows) }
	for _, j:=range []int{0, g.BatchSamples/g.Cols - 1, g.BatchSamples / g.Cols, g.Rows - 1} {
		for _, i:=range []int{0, g.Cols - 1} {
			p:=g.Pixel(i, j)
			want, _:=proj.Forward(p)
			wantLine:=fmt.Sprintf("%g,%g,%.10f,%.10f", p.X, p.Y, want.Lon, want.Lat)
			if got:=lines[j*g.Cols+i]; got!=wantLine { t.Errorf("sample (%d,%d)=%q; want %q", i, j, got, wantLine) }
		}
	}
}

// Fails every reverse projection with a plain error
type reverseFailing struct{ projection.Projection }

func (reverseFailing) Reverse(coord.LonLat) (coord.Point2D, error) {
	return coord.Point2D{}, errors.New("no inverse")
}

func TestProjectGridCountsReverseFailures(t *testing.T) {
	op:=NewOpProjectGrid(5, 4, 1)
	op.Check=true
	g, err:=op.Apply(reverseFailing{gridProjection(t, projection.Gnomonic)}, nil, io.Discard)
	if err!=nil { t.Fatalf("Apply() err=%v", err) }
	if g.ReverseFailed!=20 || g.NotConverged!=0 || g.Failed!=0 {
		t.Errorf("reverseFailed=%d notConverged=%d failed=%d; want 20 0 0", g.ReverseFailed, g.NotConverged, g.Failed)
	}
	if !math.IsNaN(g.MedianResidual) || g.MaxResidual!=0 { t.Errorf("residual median %g max %g; want NaN 0", g.MedianResidual, g.MaxResidual) }
}

func TestBenchProjectionSkipsForwardFailures(t *testing.T) {
	proj:=gridProjection(t, projection.Cylindrical)
	pixels:=[]coord.Point2D{{X: 50.5, Y: 40.5}, {X: 50.5, Y: 1e6}, {X: 20, Y: 70}}
	r:=BenchProjection(proj, pixels)
	if r.Points!=3 || r.ForwardFailed!=1 || r.Reversed!=2 {
		t.Errorf("points=%d forwardFailed=%d reversed=%d; want 3 1 2", r.Points, r.ForwardFailed, r.Reversed)
	}
	if r.ReverseFailed!=0 || r.NotConverged!=0 { t.Errorf("reverseFailed=%d notConverged=%d; want 0 0", r.ReverseFailed, r.NotConverged) }
	if r.MaxResidual>1e-6 { t.Errorf("max residual %g; want <= 1e-6", r.MaxResidual) }
}

func TestPrepareBatches(t *testing.T) {
	numBatches, batchRows:=PrepareBatches(1000, 1000, 1, io.Discard)
	if numBatches*batchRows<1000 { t.Errorf("%d batches of %d rows do not cover 1000 rows", numBatches, batchRows) }
	if int64(batchRows)*1000*bytesPerSample>1024*1024 { t.Errorf("batch of %d rows exceeds 1 MB", batchRows) }

	if n, r:=PrepareBatches(10, 10, 1024, io.Discard); n!=1 || r!=10 { t.Errorf("PrepareBatches(10,10)=%d,%d; want 1,10", n, r) }
	if n, _:=PrepareBatches(0, 10, 1024, io.Discard); n!=0 { t.Errorf("PrepareBatches(0,10)=%d; want 0", n) }
}

func TestPools(t *testing.T) {
	a:=GetArrayOfFloat64FromPool(17)
	if len(a)!=17 { t.Errorf("len=%d; want 17", len(a)) }
	PutArrayOfFloat64IntoPool(a[:3])
	if b:=GetArrayOfFloat64FromPool(17); len(b)!=17 { t.Errorf("len after put=%d; want 17", len(b)) }
	p:=GetArrayOfPoint2DFromPool(5)
	PutArrayOfPoint2DIntoPool(p)
	ClearPools()
	if p:=GetArrayOfPoint2DFromPool(5); len(p)!=5 { t.Errorf("len after clear=%d; want 5", len(p)) }
}

func TestLogAlsoToFile(t *testing.T) {
	var stdout bytes.Buffer
	old:=logStdout
	logStdout=&stdout
	defer func() { logStdout=old }()

	fileName:=filepath.Join(t.TempDir(), "skyproj.log")
	if err:=LogAlsoToFile(fileName); err!=nil { t.Fatalf("LogAlsoToFile err=%v", err) }
	LogPrintf("grid %dx%d\n", 3, 2)
	LogWarnf("no convergence at %v\n", coord.Point2D{X: 1, Y: 2})
	LogSync()
	want:="grid 3x2\nWarning: no convergence at (1.000000, 2.000000)\n"
	if b, err:=os.ReadFile(fileName); err!=nil || string(b)!=want { t.Errorf("log file after sync=%q, %v; want %q", string(b), err, want) }
	LogPrint("legal", "\n")
	want+="legal\n"
	if err:=LogClose(); err!=nil { t.Fatalf("LogClose err=%v", err) }
	LogPrintln("stdout only")

	b, err:=os.ReadFile(fileName)
	if err!=nil { t.Fatal(err) }
	if string(b)!=want { t.Errorf("log file=%q; want %q", string(b), want) }
	if stdout.String()!=want+"stdout only\n" { t.Errorf("stdout=%q", stdout.String()) }

	if err:=LogAlsoToFile(filepath.Join(t.TempDir(), "missing", "x.log")); err==nil { t.Errorf("LogAlsoToFile(missing dir) err=nil; want error") }
}
