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

// Package metrics counts projected points, failures and HEALPix lookups
// of a command line run, and writes them in the Prometheus text format.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mlnoga/skyproj/internal/healpix"
	"github.com/mlnoga/skyproj/internal/projection"
	"github.com/mlnoga/skyproj/internal/sphere"
)

var (
	PointsTotal=prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyproj_points_total",
			Help: "Total number of projected points.",
		},
		[]string{"kind", "direction"},
	)

	FailuresTotal=prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyproj_failures_total",
			Help: "Projections that returned an error, by reason.",
		},
		[]string{"kind", "reason"},
	)

	HealpixLookupsTotal=prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyproj_healpix_lookups_total",
			Help: "Total number of HEALPix index lookups.",
		},
		[]string{"scheme"},
	)

	ResidualPixels=prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skyproj_residual_pixels",
			Help:    "Distance in pixels between a grid point and its forward-reverse round trip.",
			Buckets: prometheus.ExponentialBuckets(1e-12, 10, 12),
		},
	)

	// Registry holding all collectors of this package
	Registry=prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(PointsTotal, FailuresTotal, HealpixLookupsTotal, ResidualPixels)
}

// Returns a short label for the kind of the given error
func Reason(err error) string {
	switch {
	case err==nil:
		return "none"
	case errors.Is(err, projection.ErrNotConverged):
		return "not_converged"
	case errors.Is(err, projection.ErrNotOnImage):
		return "not_on_image"
	case errors.Is(err, projection.ErrIllConditioned):
		return "ill_conditioned"
	case errors.Is(err, projection.ErrInvalidParams):
		return "invalid_params"
	case errors.Is(err, sphere.ErrDomain):
		return "domain"
	case errors.Is(err, healpix.ErrRange):
		return "range"
	}
	return "other"
}

// Counts one projected point, and the failure if err is not nil
func ObserveProjection(kind projection.Kind, direction string, err error) {
	PointsTotal.WithLabelValues(kind.String(), direction).Inc()
	if err!=nil {
		FailuresTotal.WithLabelValues(kind.String(), Reason(err)).Inc()
	}
}

// Counts one HEALPix lookup
func ObserveLookup(s healpix.Scheme) {
	HealpixLookupsTotal.WithLabelValues(s.String()).Inc()
}

// Writes all metrics to the given file in the node exporter textfile format
func WriteTextfile(fileName string) error {
	if err:=prometheus.WriteToTextfile(fileName, Registry); err!=nil {
		return errors.Wrapf(err, "writing metrics to %s", fileName)
	}
	return nil
}
