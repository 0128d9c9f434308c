// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
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

package icc

import (
	"encoding/base64"
	"encoding/json"
	"math"
)

// bakedLUTVersion is the persisted-layout format version (spec §3/§6).
const bakedLUTVersion = 1

// BakedLUT is the persisted form of a pipeline's end-to-end transform,
// sampled onto a regular grid so repeated evaluation can skip stage
// execution entirely (spec §4.6). The field names are a wire contract:
// [Transform.ExportLUT] and [ImportLUT] round-trip this layout as JSON
// (optionally base64-packed, see [WithLUTBase64]), so the shape is kept
// stable rather than renamed to a more Go-idiomatic form.
type BakedLUT struct {
	Chain          string    `json:"chain"`
	Version        int       `json:"version"`
	InputChannels  int       `json:"input_channels"`
	OutputChannels int       `json:"output_channels"`
	GridPoints     []int     `json:"grid_points"`
	G1             int       `json:"g1"`
	G2             int       `json:"g2"`
	G3             int       `json:"g3"`
	GO0            int       `json:"go0"`
	GO1            int       `json:"go1"`
	GO2            int       `json:"go2"`
	GO3            int       `json:"go3"`
	CLUT           []float64 `json:"CLUT,omitempty"`
	CLUTBase64     string    `json:"CLUT_base64,omitempty"`
	Encoding       string    `json:"encoding"`
	Precision      int       `json:"precision"`
	InputScale     float64   `json:"input_scale"`
	OutputScale    float64   `json:"output_scale"`
}

// defaultGridSize picks the baking resolution the spec documents: 33
// points per axis for <=3 input channels, 17 for 4 (spec §4.6).
func defaultGridSize(channels int) int {
	if channels >= 4 {
		return 17
	}
	return 33
}

// bakeStages samples the given stage list onto a regular grid of the
// given per-axis resolution, producing the flattened CLUT Bake
// consumes. inChannels/outChannels come from the chain's end profiles.
func bakeStages(stages []*Stage, inChannels, outChannels, gridSize int) []float64 {
	gridPoints := make([]int, inChannels)
	total := 1
	for i := range gridPoints {
		gridPoints[i] = gridSize
		total *= gridSize
	}

	clut := make([]float64, total*outChannels)
	idx := make([]int, inChannels)
	input := make([]float64, inChannels)
	scale := float64(gridSize - 1)

	for pos := 0; pos < total; pos++ {
		rem := pos
		for d := inChannels - 1; d >= 0; d-- {
			idx[d] = rem % gridSize
			rem /= gridSize
		}
		for d := range input {
			if scale > 0 {
				input[d] = float64(idx[d]) / scale
			} else {
				input[d] = 0
			}
		}

		val := append([]float64(nil), input...)
		for _, s := range stages {
			val = s.Eval(val)
		}

		base := pos * outChannels
		for c := 0; c < outChannels && c < len(val); c++ {
			clut[base+c] = val[c]
		}
	}
	return clut
}

// rawCLUTIfExact returns the native CLUT of a single profileLutStage
// without resampling, when its own grid already matches gridSize on
// every axis, its output channel count matches outChannels, and neither
// the stage (input/output scale) nor the Lut (curves, matrix) alters
// values around the table. Lut8/Lut16 always carry curve tables, so
// only curve- and matrix-free mAB/mBA Luts qualify. This
// lets Bake skip re-sampling a profile-tag Lut's table through its own
// interpolator just to rebuild an identical grid.
func rawCLUTIfExact(stages []*Stage, inChannels, outChannels, gridSize int) ([]float64, bool) {
	if len(stages) != 1 || stages[0].kind != kindProfileLut {
		return nil, false
	}
	s := stages[0]
	if (s.profInputScale != 0 && s.profInputScale != 1) || (s.profOutputScale != 0 && s.profOutputScale != 1) {
		return nil, false
	}
	switch lut := s.profLut.(type) {
	case *LutAToB:
		if lut.aCurves != nil || lut.mCurves != nil || lut.matrix != nil || lut.bCurves != nil {
			return nil, false
		}
	case *LutBToA:
		if lut.bCurves != nil || lut.matrix != nil || lut.mCurves != nil || lut.aCurves != nil {
			return nil, false
		}
	default:
		return nil, false
	}
	gridPoints, clut, outCh, ok := rawCLUT(s.profLut)
	if !ok || outCh != outChannels || len(gridPoints) != inChannels {
		return nil, false
	}
	for _, g := range gridPoints {
		if g != gridSize {
			return nil, false
		}
	}
	return append([]float64(nil), clut...), true
}

// Bake samples the full stage list onto a regular grid and returns the
// resulting BakedLUT, following spec §4.6's grid-size defaults
// (overridden by cfg.gridPoints3D/gridPoints4D).
func Bake(cfg *Config, chainDesc string, stages []*Stage, inChannels, outChannels int) *BakedLUT {
	gridSize := defaultGridSize(inChannels)
	if inChannels >= 4 {
		if cfg.gridPoints4D > 0 {
			gridSize = cfg.gridPoints4D
		}
	} else if cfg.gridPoints3D > 0 {
		gridSize = cfg.gridPoints3D
	}

	clut, ok := rawCLUTIfExact(stages, inChannels, outChannels, gridSize)
	if !ok {
		clut = bakeStages(stages, inChannels, outChannels, gridSize)
	}

	gridPoints := make([]int, inChannels)
	for i := range gridPoints {
		gridPoints[i] = gridSize
	}

	encoding := "number"
	if cfg.lutBase64 {
		encoding = "base64"
	}
	b := &BakedLUT{
		Chain:          chainDesc,
		Version:        bakedLUTVersion,
		InputChannels:  inChannels,
		OutputChannels: outChannels,
		GridPoints:     gridPoints,
		CLUT:           clut,
		Encoding:       encoding,
		Precision:      2,
		InputScale:     1,
		OutputScale:    1,
	}
	if len(gridPoints) > 0 {
		b.G1 = gridPoints[0]
	}
	if len(gridPoints) > 1 {
		b.G2 = gridPoints[1]
	}
	if len(gridPoints) > 2 {
		b.G3 = gridPoints[2]
	}
	b.GO0 = outChannels
	if len(gridPoints) > 0 {
		b.GO1 = gridPoints[0] * outChannels
	}
	if len(gridPoints) > 1 {
		b.GO2 = gridPoints[0] * gridPoints[1] * outChannels
	}
	if len(gridPoints) > 2 {
		b.GO3 = gridPoints[0] * gridPoints[1] * gridPoints[2] * outChannels
	}
	return b
}

// GetLUT returns the baked CLUT's raw float data.
func (b *BakedLUT) GetLUT() []float64 {
	return append([]float64(nil), b.CLUT...)
}

// GetLUT8 quantises the baked CLUT to 8-bit precision.
func (b *BakedLUT) GetLUT8() []byte {
	out := make([]byte, len(b.CLUT))
	for i, v := range b.CLUT {
		out[i] = byte(clamp(math.Round(v*255), 0, 255))
	}
	return out
}

// GetLUT16 quantises the baked CLUT to 16-bit precision.
func (b *BakedLUT) GetLUT16() []uint16 {
	out := make([]uint16, len(b.CLUT))
	for i, v := range b.CLUT {
		out[i] = uint16(clamp(math.Round(v*65535), 0, 65535))
	}
	return out
}

// SetLUT attaches a pre-built CLUT in place of this one, validating
// that its shape matches (spec §4.6's attachment contract). This only
// swaps the raw grid data; it does not carry chain metadata, so it
// cannot perform the chain-shape validation [ImportLUT] does for a
// full persisted-layout set_lut call.
func (b *BakedLUT) SetLUT(clut []float64) error {
	expected := b.OutputChannels
	for _, g := range b.GridPoints {
		expected *= g
	}
	if len(clut) != expected {
		return errLutAttach("replacement CLUT has the wrong length for this layout")
	}
	b.CLUT = append([]float64(nil), clut...)
	return nil
}

// clutRef builds the clutRef Eval payload for a baked LUT, so a
// Transform can run Forward against the baked grid instead of the full
// stage list.
func (b *BakedLUT) clutRef(method InterpolationMethod, fast bool) *clutRef {
	return &clutRef{
		gridPoints:  append([]int(nil), b.GridPoints...),
		clut:        b.CLUT,
		outChannels: b.OutputChannels,
		inputScale:  b.InputScale,
		outputScale: b.OutputScale,
		method:      method,
		fast:        fast,
	}
}

// MarshalJSON implements the base64 payload encoding option (spec §3's
// persisted-layout "encoding: number|base64"): when Encoding is
// "base64", CLUT is dropped in favour of a base64-packed CLUTBase64
// string of little-endian float64 values.
func (b *BakedLUT) MarshalJSON() ([]byte, error) {
	type alias BakedLUT
	out := *b
	if out.Encoding == "base64" {
		out.CLUTBase64 = base64.StdEncoding.EncodeToString(float64sToBytes(out.CLUT))
		out.CLUT = nil
	}
	return json.Marshal((*alias)(&out))
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *BakedLUT) UnmarshalJSON(data []byte) error {
	type alias BakedLUT
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*b = BakedLUT(tmp)
	if b.Encoding == "base64" && b.CLUTBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(b.CLUTBase64)
		if err != nil {
			return errLutAttach("invalid base64 CLUT payload: " + err.Error())
		}
		b.CLUT = bytesToFloat64s(raw)
	}
	return nil
}

func float64sToBytes(v []float64) []byte {
	out := make([]byte, len(v)*8)
	for i, f := range v {
		bits := math.Float64bits(f)
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(bits >> (8 * j))
		}
	}
	return out
}

func bytesToFloat64s(b []byte) []float64 {
	n := len(b) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var bits uint64
		for j := 0; j < 8; j++ {
			bits |= uint64(b[i*8+j]) << (8 * j)
		}
		out[i] = math.Float64frombits(bits)
	}
	return out
}
