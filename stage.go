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

import "fmt"

// stageKind tags the payload carried by a Stage. Modelled as a sum type
// (see SPEC_FULL.md §3) rather than an interface, so the executor dispatches
// through a single switch instead of a virtual call per stage.
type stageKind int

const (
	kindNoOp stageKind = iota
	kindCurves
	kindInverseCurves
	kindMatrix
	kindCLUT
	kindBPC
	kindIntToDevice
	kindDeviceToInt
	kindEncodingConvert
	kindProfileLut
	kindCustom
)

// StageFunc is the signature of a caller-registered custom stage.
type StageFunc func(input []float64) []float64

// conversionID names a directed encoding conversion. The optimiser's
// peephole patterns (spec §4.3) match on these, so every rewrite rule
// reduces to a pair (or triple) of conversionID comparisons.
type conversionID int

const (
	convNone conversionID = iota
	convLabD50ToPCSv4
	convPCSv4ToLabD50
	convLabD50ToPCSv2
	convPCSv2ToLabD50
	convPCSv4ToPCSv2
	convPCSv2ToPCSv4
	convXYZToPCSXYZ
	convPCSXYZToXYZ
	convLabD50ToPCSXYZ
	convPCSXYZToLabD50
	convLabD50ToCmsLab
	convCmsLabToLabD50
	convPCSv2ToCmsLab
	convCmsLabToPCSv2
	convPCSv4ToCmsLab
	convCmsLabToPCSv4
)

// inverseConv returns the conversion that undoes id, if id is its own
// round-trip partner (used by the optimiser's round-trip cancellation rule).
func inverseConv(id conversionID) (conversionID, bool) {
	switch id {
	case convLabD50ToPCSv4:
		return convPCSv4ToLabD50, true
	case convPCSv4ToLabD50:
		return convLabD50ToPCSv4, true
	case convLabD50ToPCSv2:
		return convPCSv2ToLabD50, true
	case convPCSv2ToLabD50:
		return convLabD50ToPCSv2, true
	case convPCSv4ToPCSv2:
		return convPCSv2ToPCSv4, true
	case convPCSv2ToPCSv4:
		return convPCSv4ToPCSv2, true
	case convXYZToPCSXYZ:
		return convPCSXYZToXYZ, true
	case convPCSXYZToXYZ:
		return convXYZToPCSXYZ, true
	case convLabD50ToPCSXYZ:
		return convPCSXYZToLabD50, true
	case convPCSXYZToLabD50:
		return convLabD50ToPCSXYZ, true
	case convLabD50ToCmsLab:
		return convCmsLabToLabD50, true
	case convCmsLabToLabD50:
		return convLabD50ToCmsLab, true
	case convPCSv2ToCmsLab:
		return convCmsLabToPCSv2, true
	case convCmsLabToPCSv2:
		return convPCSv2ToCmsLab, true
	case convPCSv4ToCmsLab:
		return convCmsLabToPCSv4, true
	case convCmsLabToPCSv4:
		return convPCSv4ToCmsLab, true
	}
	return convNone, false
}

func evalConversion(id conversionID, white [3]float64, v []float64) []float64 {
	if len(v) < 3 {
		padded := make([]float64, 3)
		copy(padded, v)
		v = padded
	}
	in := [3]float64{v[0], v[1], v[2]}

	var out [3]float64
	switch id {
	case convLabD50ToPCSv4:
		out = labToPCSv4(in)
	case convPCSv4ToLabD50:
		out = pcsv4ToLab(in)
	case convLabD50ToPCSv2:
		out = labToPCSv2(in)
	case convPCSv2ToLabD50:
		out = pcsv2ToLab(in)
	case convPCSv4ToPCSv2:
		out = pcsv4ToPCSv2(in)
	case convPCSv2ToPCSv4:
		out = pcsv2ToPCSv4(in)
	case convXYZToPCSXYZ:
		out = xyzToPCSXYZ(in)
	case convPCSXYZToXYZ:
		out = pcsXYZToXYZ(in)
	case convLabD50ToPCSXYZ:
		out = xyzToPCSXYZ(labD50ToXYZ(in))
	case convPCSXYZToLabD50:
		out = xyzToLabD50(pcsXYZToXYZ(in))
	case convLabD50ToCmsLab:
		out = labD50ToCmsLab(in, white)
	case convCmsLabToLabD50:
		out = cmsLabToLabD50(in, white)
	case convPCSv2ToCmsLab:
		out = labD50ToCmsLab(pcsv2ToLab(in), white)
	case convCmsLabToPCSv2:
		out = labToPCSv2(cmsLabToLabD50(in, white))
	case convPCSv4ToCmsLab:
		out = labD50ToCmsLab(pcsv4ToLab(in), white)
	case convCmsLabToPCSv4:
		out = labToPCSv4(cmsLabToLabD50(in, white))
	default:
		return v
	}
	return []float64{out[0], out[1], out[2]}
}

func (id conversionID) String() string {
	switch id {
	case convLabD50ToPCSv4:
		return "LabD50->PCSv4"
	case convPCSv4ToLabD50:
		return "PCSv4->LabD50"
	case convLabD50ToPCSv2:
		return "LabD50->PCSv2"
	case convPCSv2ToLabD50:
		return "PCSv2->LabD50"
	case convPCSv4ToPCSv2:
		return "PCSv4->PCSv2"
	case convPCSv2ToPCSv4:
		return "PCSv2->PCSv4"
	case convXYZToPCSXYZ:
		return "XYZ->PCSXYZ"
	case convPCSXYZToXYZ:
		return "PCSXYZ->XYZ"
	case convLabD50ToPCSXYZ:
		return "LabD50->PCSXYZ"
	case convPCSXYZToLabD50:
		return "PCSXYZ->LabD50"
	case convLabD50ToCmsLab:
		return "LabD50->cmsLab"
	case convCmsLabToLabD50:
		return "cmsLab->LabD50"
	case convPCSv2ToCmsLab:
		return "PCSv2->cmsLab"
	case convCmsLabToPCSv2:
		return "cmsLab->PCSv2"
	case convPCSv4ToCmsLab:
		return "PCSv4->cmsLab"
	case convCmsLabToPCSv4:
		return "cmsLab->PCSv4"
	default:
		return "identity"
	}
}

// clutRef is the payload of a kindCLUT stage: a baked CLUT (see
// lut_bake.go), accessed through the interpolate method. Profile-tag
// Luts are carried by kindProfileLut stages instead.
type clutRef struct {
	gridPoints  []int
	clut        []float64
	outChannels int
	inputScale  float64
	outputScale float64
	method      InterpolationMethod
	fast        bool
}

func (c *clutRef) interpolate(input []float64) []float64 {
	scaled := make([]float64, len(input))
	for i, v := range input {
		scaled[i] = clamp(v*c.inputScale, 0, 1)
	}
	out := interpolateCLUT(c.clut, c.gridPoints, c.outChannels, scaled, c.method, c.fast)
	for i := range out {
		out[i] *= c.outputScale
	}
	return out
}

// bpcParams is the payload of a kindBPC stage: a per-channel affine
// scale + offset applied in PCSXYZ space (spec §4.4).
type bpcParams struct {
	Scale  [3]float64
	Offset [3]float64
}

func (b bpcParams) apply(xyz [3]float64) [3]float64 {
	return [3]float64{
		xyz[0]*b.Scale[0] + b.Offset[0],
		xyz[1]*b.Scale[1] + b.Offset[1],
		xyz[2]*b.Scale[2] + b.Offset[2],
	}
}

// Stage is one functional unit of the pipeline (spec §3). It declares the
// encoding it expects on input and produces on output; the pipeline
// builder verifies that adjacent stages agree (checkEncodings).
type Stage struct {
	InEncoding  Encoding
	OutEncoding Encoding
	Name        string
	kind        stageKind
	optimised   bool

	curves    []*Curve
	matrix    mat34
	clut      *clutRef
	bpc       bpcParams
	scale     float64
	channels  int
	convID    conversionID
	convWhite [3]float64
	custom    StageFunc

	profLut    Lut
	profMethod InterpolationMethod
	profFast   bool
	// profInputScale/profOutputScale let the optimiser fold an adjacent
	// int<->device scale stage into this stage instead of leaving a
	// separate kindIntToDevice/kindDeviceToInt stage either side of it
	// (spec §4.3's CLUT-scale-folding rules, generalised to the
	// profile-attached-LUT stage kind actually produced by the pipeline
	// builder). Both default to 1.
	profInputScale  float64
	profOutputScale float64
}

// String formats the stage for debug/chain-info output, matching the
// teacher package's TagType.String() convention of a short descriptive
// label per value.
func (s *Stage) String() string {
	return fmt.Sprintf("%s (%s -> %s)", s.Name, s.InEncoding, s.OutEncoding)
}

// Eval runs the stage's function against input, returning the output
// values in the stage's declared OutEncoding.
func (s *Stage) Eval(input []float64) []float64 {
	switch s.kind {
	case kindNoOp:
		return input
	case kindCurves:
		out := make([]float64, len(input))
		copy(out, input)
		return applyCurves(s.curves, out)
	case kindInverseCurves:
		out := make([]float64, len(input))
		for i, v := range input {
			if i < len(s.curves) && s.curves[i] != nil {
				out[i] = s.curves[i].Invert(clamp(v, 0, 1))
			} else {
				out[i] = v
			}
		}
		return out
	case kindMatrix:
		if len(input) != 3 {
			return input
		}
		v := s.matrix.apply([3]float64{input[0], input[1], input[2]})
		return []float64{v[0], v[1], v[2]}
	case kindCLUT:
		return s.clut.interpolate(input)
	case kindBPC:
		if len(input) != 3 {
			return input
		}
		v := s.bpc.apply([3]float64{input[0], input[1], input[2]})
		return []float64{v[0], v[1], v[2]}
	case kindIntToDevice:
		out := make([]float64, len(input))
		for i, v := range input {
			out[i] = v * s.scale
		}
		return out
	case kindDeviceToInt:
		out := make([]float64, len(input))
		for i, v := range input {
			out[i] = roundHalfAwayFromZero(clamp(v, 0, 1) * s.scale)
		}
		return out
	case kindEncodingConvert:
		return evalConversion(s.convID, s.convWhite, input)
	case kindProfileLut:
		in := input
		if s.profInputScale != 0 && s.profInputScale != 1 {
			in = make([]float64, len(input))
			for i, v := range input {
				in[i] = v * s.profInputScale
			}
		}
		out := applyProfileLut(s.profLut, s.profMethod, s.profFast, in)
		if s.profOutputScale != 0 && s.profOutputScale != 1 {
			for i := range out {
				out[i] *= s.profOutputScale
			}
		}
		return out
	case kindCustom:
		if s.custom == nil {
			return input
		}
		return s.custom(input)
	default:
		return input
	}
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

func noOpStage(enc Encoding) *Stage {
	return &Stage{InEncoding: enc, OutEncoding: enc, Name: "stage_null", kind: kindNoOp}
}

func curvesStage(name string, in, out Encoding, curves []*Curve) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: name, kind: kindCurves, curves: curves}
}

func inverseCurvesStage(name string, in, out Encoding, curves []*Curve) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: name, kind: kindInverseCurves, curves: curves}
}

// relabelStage marks a pure re-tagging between two encodings that already
// carry the same numeric values (e.g. a Lab profile's device encoding is
// already its PCS encoding). The optimiser's stage_null aliasing rule
// treats this the same as any other no-op once it becomes redundant.
func relabelStage(in, out Encoding) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: "stage_null", kind: kindNoOp}
}

func matrixStage(name string, in, out Encoding, m mat34) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: name, kind: kindMatrix, matrix: m}
}

func clutStage(name string, in, out Encoding, ref *clutRef) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: name, kind: kindCLUT, clut: ref}
}

func bpcStage(in, out Encoding, p bpcParams) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: "bpc", kind: kindBPC, bpc: p}
}

func intToDeviceStage(channels int, scale float64) *Stage {
	return &Stage{
		InEncoding: EncDevice, OutEncoding: EncDevice,
		Name: "int_to_device", kind: kindIntToDevice, scale: scale, channels: channels,
	}
}

func deviceToIntStage(channels int, scale float64) *Stage {
	return &Stage{
		InEncoding: EncDevice, OutEncoding: EncDevice,
		Name: fmt.Sprintf("device%d_to_int", channels), kind: kindDeviceToInt, scale: scale, channels: channels,
	}
}

func encodingConvertStage(id conversionID, in, out Encoding, white [3]float64) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: id.String(), kind: kindEncodingConvert, convID: id, convWhite: white}
}

func customStage(name string, in, out Encoding, fn StageFunc) *Stage {
	return &Stage{InEncoding: in, OutEncoding: out, Name: name, kind: kindCustom, custom: fn}
}

func profileLutStage(name string, in, out Encoding, lut Lut, method InterpolationMethod, fast bool) *Stage {
	return &Stage{
		InEncoding: in, OutEncoding: out, Name: name,
		kind: kindProfileLut, profLut: lut, profMethod: method, profFast: fast,
		profInputScale: 1, profOutputScale: 1,
	}
}
