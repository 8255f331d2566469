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
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Encoding of a parameter file
type Format int

const (
	JSON Format = iota
	YAML
)

// Guesses the format of a parameter file from its extension. Defaults to JSON.
func FormatFromFileName(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Decodes and validates projection parameters. Unknown fields are rejected.
func DecodeParams(r io.Reader, format Format) (p Params, err error) {
	switch format {
	case YAML:
		dec:=yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&p)
	default:
		dec:=json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	}
	if err != nil {
		return Params{}, errors.Mark(errors.Wrap(err, "decoding projection parameters"), ErrInvalidParams)
	}
	if err:=p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Reads and validates projection parameters from a JSON or YAML file
func ReadParamsFile(fileName string) (Params, error) {
	f, err:=os.Open(fileName)
	if err != nil {
		return Params{}, errors.Wrapf(err, "opening parameter file")
	}
	defer f.Close()
	p, err:=DecodeParams(f, FormatFromFileName(fileName))
	if err != nil {
		return Params{}, errors.Wrapf(err, "in %s", fileName)
	}
	return p, nil
}

// Writes projection parameters as indented JSON or YAML
func EncodeParams(w io.Writer, p Params, format Format) error {
	if format == YAML {
		enc:=yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err:=enc.Encode(&p); err != nil {
			return errors.Wrap(err, "encoding projection parameters")
		}
		return enc.Close()
	}
	enc:=json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(&p), "encoding projection parameters")
}
