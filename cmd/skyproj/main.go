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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"github.com/valyala/fastrand"

	sp "github.com/mlnoga/skyproj/internal"
	"github.com/mlnoga/skyproj/internal/coord"
	"github.com/mlnoga/skyproj/internal/healpix"
	"github.com/mlnoga/skyproj/internal/metrics"
	"github.com/mlnoga/skyproj/internal/projection"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var params = flag.String("params", "", "read projection parameters from JSON or YAML `file`")
var out    = flag.String("out", "", "save grid output as CSV to `file`, blank for the log")
var log    = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var metricsFile = flag.String("metrics", "", "write Prometheus metrics in textfile format to `file`")

var nside  = flag.Int64("nside", 1024, "HEALPix resolution, a power of two up to 2^29")
var scheme = flag.String("scheme", "RING", "HEALPix numbering scheme, RING or NESTED")

var width  = flag.Int64("width", 0, "image width in pixels for grid and bench, 0=twice the reference pixel")
var height = flag.Int64("height", 0, "image height in pixels for grid and bench, 0=twice the reference pixel")
var step   = flag.Float64("step", 16, "grid spacing in pixels")
var check  = flag.Int64("check", 1, "1=map grid samples back to pixels and report residuals, 0=forward only")
var threads= flag.Int64("threads", 0, "number of threads for grid projection, 0=one per CPU")
var memLimit=flag.Int64("memory", 0, "MiB of memory to use for grid projection, 0=half of physical memory")
var samples= flag.Int64("n", 100000, "number of random points for bench")
var seed   = flag.Int64("seed", 42, "random seed for bench")

func main() {
	logWriter:=sp.LogWriter()
	start:=time.Now()
	flag.Usage=func(){
		fmt.Fprintf(logWriter, `Skyproj Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] command (args)

Commands:
  forward   Map pixel positions x y ... to the sky, using -params
  reverse   Map sky positions lon lat ... to pixels, using -params
  grid      Map a regular pixel grid to the sky in parallel, using -params
  healpix   Show HEALPix pixels for sky positions lon lat ...
  nest2ring Convert NESTED HEALPix pixel indices to RING
  ring2nest Convert RING HEALPix pixel indices to NESTED
  pix2ang   Show centre positions of HEALPix pixels in -scheme
  same      Compare the projections described by two parameter files
  bench     Time forward and reverse mappings of random pixels, using -params
  legal     Show license and attribution information
  version   Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		if err:=sp.LogAlsoToFile(*log); err!=nil { sp.LogFatalf("Unable to open logfile '%s': %v\n", *log, err) }
	}

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil { sp.LogFatal("Could not create CPU profile: ", err) }
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil { sp.LogFatal("Could not start CPU profile: ", err) }
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "forward":
		err=cmdForward(args[1:], logWriter)
	case "reverse":
		err=cmdReverse(args[1:], logWriter)
	case "grid":
		err=cmdGrid(logWriter)
	case "healpix":
		err=cmdHealpix(args[1:], logWriter)
	case "nest2ring":
		err=cmdConvert(args[1:], healpix.Nested, healpix.Ring, logWriter)
	case "ring2nest":
		err=cmdConvert(args[1:], healpix.Ring, healpix.Nested, logWriter)
	case "pix2ang":
		err=cmdPix2Ang(args[1:], logWriter)
	case "same":
		err=cmdSame(args[1:], logWriter)
	case "bench":
		err=cmdBench(logWriter)
	case "legal":
		sp.LogPrint(legal)
	case "version":
		cmdVersion(logWriter)
	case "help", "?":
		flag.Usage()
	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if *metricsFile!="" && err==nil {
		err=metrics.WriteTextfile(*metricsFile)
	}

	elapsed:=time.Since(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		sp.LogClose()
		os.Exit(-1)
	}
	sp.LogClose()
}

// Builds the projection described by the -params file
func loadProjection(logWriter io.Writer) (projection.Projection, error) {
	if *params=="" { return nil, errors.New("missing -params file") }
	p, err:=projection.ReadParamsFile(*params)
	if err!=nil { return nil, err }
	proj, err:=projection.New(p)
	if err!=nil { return nil, err }

	m, err:=json.MarshalIndent(p, "", "  ")
	if err!=nil { return nil, err }
	fmt.Fprintf(logWriter, "Using %v projection with these settings:\n%s\n", p.Kind, string(m))
	return proj, nil
}

// Parses an even number of arguments into coordinate pairs
func parsePairs(args []string) ([][2]float64, error) {
	if len(args)==0 || len(args)%2!=0 { return nil, errors.Newf("need pairs of coordinates, got %d values", len(args)) }
	pairs:=make([][2]float64, len(args)/2)
	for i, a:=range args {
		v, err:=strconv.ParseFloat(a, 64)
		if err!=nil { return nil, errors.Wrapf(err, "argument %d", i+1) }
		pairs[i/2][i%2]=v
	}
	return pairs, nil
}

// Parses pixel index arguments
func parseIndices(args []string) ([]uint64, error) {
	if len(args)==0 { return nil, errors.New("need at least one pixel index") }
	res:=make([]uint64, len(args))
	for i, a:=range args {
		v, err:=strconv.ParseUint(a, 10, 64)
		if err!=nil { return nil, errors.Wrapf(err, "argument %d", i+1) }
		res[i]=v
	}
	return res, nil
}

func cmdForward(args []string, logWriter io.Writer) error {
	proj, err:=loadProjection(logWriter)
	if err!=nil { return err }
	pairs, err:=parsePairs(args)
	if err!=nil { return err }
	for _, pair:=range pairs {
		pixel:=coord.Point2D{X: pair[0], Y: pair[1]}
		sky, err:=proj.Forward(pixel)
		metrics.ObserveProjection(proj.Kind(), "forward", err)
		if err!=nil {
			fmt.Fprintf(logWriter, "%v -> error %s: %v\n", pixel, metrics.Reason(err), err)
			continue
		}
		fmt.Fprintf(logWriter, "%v -> %v\n", pixel, sky)
	}
	return nil
}

func cmdReverse(args []string, logWriter io.Writer) error {
	proj, err:=loadProjection(logWriter)
	if err!=nil { return err }
	pairs, err:=parsePairs(args)
	if err!=nil { return err }
	for _, pair:=range pairs {
		sky:=coord.LonLat{Lon: pair[0], Lat: pair[1]}
		pixel, err:=proj.Reverse(sky)
		metrics.ObserveProjection(proj.Kind(), "reverse", err)
		var warn *projection.ConvergenceWarning
		switch {
		case errors.As(err, &warn):
			sp.LogWarnf("%v\n", warn)
			fmt.Fprintf(logWriter, "%v -> %v (best effort)\n", sky, pixel)
		case err!=nil:
			fmt.Fprintf(logWriter, "%v -> error %s: %v\n", sky, metrics.Reason(err), err)
		default:
			fmt.Fprintf(logWriter, "%v -> %v\n", sky, pixel)
		}
	}
	return nil
}

// Returns the image size from flags, defaulting to twice the reference pixel
func imageSize(proj projection.Projection) (w, h int) {
	w, h=int(*width), int(*height)
	ref:=proj.Params().RefPixel
	if w<=0 { w=int(2*ref.X) }
	if h<=0 { h=int(2*ref.Y) }
	return w, h
}

func cmdGrid(logWriter io.Writer) error {
	proj, err:=loadProjection(logWriter)
	if err!=nil { return err }
	w, h:=imageSize(proj)
	op:=sp.NewOpProjectGrid(w, h, *step)
	op.Check=*check!=0
	op.MaxThreads=int(*threads)
	op.MemoryMB=*memLimit
	if *out=="" {
		_, err:=op.Apply(proj, logWriter, logWriter)
		return err
	}
	f, err:=os.Create(*out)
	if err!=nil { return errors.Wrapf(err, "creating %s", *out) }
	defer f.Close()
	g, err:=op.Apply(proj, f, logWriter)
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "Wrote %d samples to %s\n", g.Cols*g.Rows, *out)
	return nil
}

func healpixIndex() (*healpix.Index, healpix.Scheme, error) {
	s, err:=healpix.ParseScheme(*scheme)
	if err!=nil { return nil, s, err }
	idx, err:=healpix.NewIndex(int(*nside))
	return idx, s, err
}

func cmdHealpix(args []string, logWriter io.Writer) error {
	idx, s, err:=healpixIndex()
	if err!=nil { return err }
	pairs, err:=parsePairs(args)
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "HEALPix nside %d (order %d, %d pixels of %.4g°), %v scheme\n", idx.Nside(), idx.Order(), idx.Npix(), idx.Resolution(), s)
	for _, pair:=range pairs {
		pix, err:=idx.AngleToPixel(pair[0], pair[1], s)
		metrics.ObserveLookup(s)
		if err!=nil {
			fmt.Fprintf(logWriter, "%v -> error: %v\n", coord.LonLat{Lon: pair[0], Lat: pair[1]}, err)
			continue
		}
		fmt.Fprintf(logWriter, "%v -> %d\n", coord.LonLat{Lon: pair[0], Lat: pair[1]}, pix)
	}
	return nil
}

func cmdConvert(args []string, from, to healpix.Scheme, logWriter io.Writer) error {
	idx, _, err:=healpixIndex()
	if err!=nil { return err }
	pixels, err:=parseIndices(args)
	if err!=nil { return err }
	for _, pix:=range pixels {
		conv, err:=idx.Convert(pix, from, to)
		if err!=nil { return err }
		fmt.Fprintf(logWriter, "%v %d -> %v %d\n", from, pix, to, conv)
	}
	return nil
}

func cmdPix2Ang(args []string, logWriter io.Writer) error {
	idx, s, err:=healpixIndex()
	if err!=nil { return err }
	pixels, err:=parseIndices(args)
	if err!=nil { return err }
	for _, pix:=range pixels {
		lon, lat, err:=idx.PixelToAngle(pix, s)
		if err!=nil { return err }
		fmt.Fprintf(logWriter, "%v %d -> %v\n", s, pix, coord.LonLat{Lon: lon, Lat: lat})
	}
	return nil
}

func cmdSame(args []string, logWriter io.Writer) error {
	if len(args)!=2 { return errors.Newf("need exactly two parameter files, got %d", len(args)) }
	a, err:=projection.ReadParamsFile(args[0])
	if err!=nil { return err }
	b, err:=projection.ReadParamsFile(args[1])
	if err!=nil { return err }
	if projection.Same(a, b) {
		fmt.Fprintf(logWriter, "%s and %s describe the same projection\n", args[0], args[1])
	} else {
		fmt.Fprintf(logWriter, "%s and %s describe different projections\n", args[0], args[1])
	}
	return nil
}

// Times forward and reverse projections of uniformly random pixels on the image
func cmdBench(logWriter io.Writer) error {
	proj, err:=loadProjection(logWriter)
	if err!=nil { return err }
	w, h:=imageSize(proj)
	n:=int(*samples)
	if n<=0 { return errors.Newf("invalid number of samples %d", n) }

	rng:=fastrand.RNG{}
	rng.Seed(uint32(*seed))
	pixels:=sp.GetArrayOfPoint2DFromPool(n)
	defer sp.PutArrayOfPoint2DIntoPool(pixels)
	for i:=range pixels {
		pixels[i]=coord.Point2D{
			X: 1 + float64(rng.Uint32n(uint32(w)*1024))/1024,
			Y: 1 + float64(rng.Uint32n(uint32(h)*1024))/1024,
		}
	}

	r:=sp.BenchProjection(proj, pixels)
	fwd, rev:=r.Forward, r.Reverse
	fmt.Fprintf(logWriter, "Forward: %d points in %v, %.1f ns/point, %d failed\n", n, fwd, float64(fwd.Nanoseconds())/float64(n), r.ForwardFailed)
	fmt.Fprintf(logWriter, "Reverse: %d points in %v, %.1f ns/point, %d failed, %d not converged\n", r.Reversed, rev, float64(rev.Nanoseconds())/float64(max(r.Reversed, 1)), r.ReverseFailed, r.NotConverged)
	fmt.Fprintf(logWriter, "Max round trip residual %.3g pixels\n", r.MaxResidual)
	return nil
}

func cmdVersion(logWriter io.Writer) {
	fmt.Fprintf(logWriter, "Version %s\n", version)
	fmt.Fprintf(logWriter, "%s on %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(logWriter, "CPU %s with %d physical and %d logical cores, AVX2=%v\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2())
	fmt.Fprintf(logWriter, "Physical memory %d MiB\n", memory.TotalMemory()/1024/1024)
}
