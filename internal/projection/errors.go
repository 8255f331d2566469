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

package projection

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mlnoga/skyproj/internal/coord"
)

var (
	ErrInvalidParams  = errors.New("invalid projection parameters")
	ErrIllConditioned = errors.New("ill-conditioned projection parameters")
	ErrNotOnImage     = errors.New("point cannot be mapped onto the image plane")
	ErrNotConverged   = errors.New("iterative inversion did not converge")
)

// Returned together with a best-effort result when an iterative
// inversion reaches its iteration limit. Matches ErrNotConverged.
type ConvergenceWarning struct {
	Kind       Kind
	Iterations int
	Step       coord.Point2D // last correction applied
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%v inversion stopped after %d iterations, last step (%.3g, %.3g)",
		w.Kind, w.Iterations, w.Step.X, w.Step.Y)
}

func newConvergenceWarning(k Kind, iterations int, dx, dy float64) error {
	return errors.Mark(&ConvergenceWarning{k, iterations, coord.Point2D{X: dx, Y: dy}}, ErrNotConverged)
}

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidParams)
}

func illConditionedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrIllConditioned)
}

// Points off the image are a special case of ill-conditioned input and match both kinds
func notOnImagef(format string, args ...interface{}) error {
	return errors.Mark(errors.Mark(errors.Newf(format, args...), ErrNotOnImage), ErrIllConditioned)
}
