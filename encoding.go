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

import "math"

// Encoding identifies the representation carried between two adjacent
// pipeline stages. Every stage declares an input and an output encoding;
// the pipeline builder rejects a stage list where adjacent encodings
// disagree (see checkEncodings).
type Encoding int

// The reference encodings used throughout the pipeline.
const (
	// EncDevice is n device values in [0,1].
	EncDevice Encoding = iota
	// EncPCSXYZ is CIE XYZ scaled by 1/1.999969482421875 (the ICC 16-bit
	// XYZ encoding factor).
	EncPCSXYZ
	// EncPCSv4 is ICC v4's normalised Lab encoding: L/100, (a+128)/255, (b+128)/255.
	EncPCSv4
	// EncPCSv2 is EncPCSv4 scaled by 65280/65535 (the ICC v2 8000h/8080h convention).
	EncPCSv2
	// EncLabD50 is Lab already adapted to the D50 illuminant: L in [0,100], a,b in [-128,127].
	EncLabD50
	// EncCmsLab is caller-supplied Lab, of unspecified white point.
	EncCmsLab
	// EncCmsRGB is caller-supplied RGB in [0,255] (or [0,1] for objectFloat).
	EncCmsRGB
	// EncCmsCMYK is caller-supplied CMYK in [0,100].
	EncCmsCMYK
	// EncCmsXYZ is caller-supplied, unbounded XYZ.
	EncCmsXYZ
)

func (e Encoding) String() string {
	switch e {
	case EncDevice:
		return "device"
	case EncPCSXYZ:
		return "PCSXYZ"
	case EncPCSv4:
		return "PCSv4"
	case EncPCSv2:
		return "PCSv2"
	case EncLabD50:
		return "LabD50"
	case EncCmsLab:
		return "cmsLab"
	case EncCmsRGB:
		return "cmsRGB"
	case EncCmsCMYK:
		return "cmsCMYK"
	case EncCmsXYZ:
		return "cmsXYZ"
	default:
		return "unknown"
	}
}

// xyzTo16BitFactor is 2*32768/65535, the ICC XYZNumber <-> normalised-XYZ
// scale used by PCSXYZ.
const xyzTo16BitFactor = 2 * 32768.0 / 65535.0

// pcsV2Factor is 8000h/8080h, the ICC v2 Lab encoding ratio relative to v4.
const pcsV2Factor = 65280.0 / 65535.0

// d50Illuminant is the PCS illuminant, CIE D50 in XYZ.
var d50Illuminant = [3]float64{0.96422, 1.0, 0.82521}

func xyzToPCSXYZ(xyz [3]float64) [3]float64 {
	return [3]float64{xyz[0] / xyzTo16BitFactor, xyz[1] / xyzTo16BitFactor, xyz[2] / xyzTo16BitFactor}
}

func pcsXYZToXYZ(v [3]float64) [3]float64 {
	return [3]float64{v[0] * xyzTo16BitFactor, v[1] * xyzTo16BitFactor, v[2] * xyzTo16BitFactor}
}

// labToPCSv4 normalises LabD50 (L in [0,100], a,b in [-128,127]) to the
// ICC v4 [0,1] PCS encoding.
func labToPCSv4(lab [3]float64) [3]float64 {
	return [3]float64{lab[0] / 100.0, (lab[1] + 128.0) / 255.0, (lab[2] + 128.0) / 255.0}
}

func pcsv4ToLab(v [3]float64) [3]float64 {
	return [3]float64{v[0] * 100.0, v[1]*255.0 - 128.0, v[2]*255.0 - 128.0}
}

func labToPCSv2(lab [3]float64) [3]float64 {
	v4 := labToPCSv4(lab)
	return [3]float64{v4[0] * pcsV2Factor, v4[1] * pcsV2Factor, v4[2] * pcsV2Factor}
}

func pcsv2ToLab(v [3]float64) [3]float64 {
	v4 := [3]float64{v[0] / pcsV2Factor, v[1] / pcsV2Factor, v[2] / pcsV2Factor}
	return pcsv4ToLab(v4)
}

func pcsv4ToPCSv2(v [3]float64) [3]float64 {
	return [3]float64{v[0] * pcsV2Factor, v[1] * pcsV2Factor, v[2] * pcsV2Factor}
}

func pcsv2ToPCSv4(v [3]float64) [3]float64 {
	return [3]float64{v[0] / pcsV2Factor, v[1] / pcsV2Factor, v[2] / pcsV2Factor}
}

// xyzToLabWhite converts XYZ to Lab using the given reference white.
// Uses the exact CIE piecewise cube root, with the inflection at (24/116)^3
// and linear slope 841/108, not an approximation.
func xyzToLabWhite(xyz, white [3]float64) [3]float64 {
	const (
		threshold = 216.0 / 24389.0 // (6/29)^3
		scale     = 841.0 / 108.0   // (29/6)^2 / 3
		offset    = 16.0 / 116.0
	)

	f := func(t float64) float64 {
		if t > threshold {
			return math.Cbrt(t)
		}
		return t*scale + offset
	}

	fx := f(xyz[0] / white[0])
	fy := f(xyz[1] / white[1])
	fz := f(xyz[2] / white[2])

	L := 116*fy - 16
	a := 500 * (fx - fy)
	b := 200 * (fy - fz)
	return [3]float64{L, a, b}
}

// labToXYZWhite converts Lab to XYZ using the given reference white.
func labToXYZWhite(lab, white [3]float64) [3]float64 {
	const (
		threshold = 24.0 / 116.0 // cube root threshold, (24/116)
		scale     = 108.0 / 841.0
		offset    = 16.0 / 116.0
	)

	fy := (lab[0] + 16) / 116
	fx := lab[1]/500 + fy
	fz := fy - lab[2]/200

	finv := func(t float64) float64 {
		if t > threshold {
			return t * t * t
		}
		return (t - offset) * scale
	}

	return [3]float64{finv(fx) * white[0], finv(fy) * white[1], finv(fz) * white[2]}
}

func xyzToLabD50(xyz [3]float64) [3]float64 { return xyzToLabWhite(xyz, d50Illuminant) }
func labD50ToXYZ(lab [3]float64) [3]float64 { return labToXYZWhite(lab, d50Illuminant) }

// bradfordM and bradfordMInv are the standard Bradford cone-response
// matrix and its inverse, used for chromatic adaptation between two
// media white points (spec: "Bradford adaptation is the default and only
// CAT used here").
var bradfordM = mat3{
	0.8951000, 0.2664000, -0.1614000,
	-0.7502000, 1.7135000, 0.0367000,
	0.0389000, -0.0685000, 1.0296000,
}

var bradfordMInv = mat3{
	0.9869929, -0.1470543, 0.1599627,
	0.4323053, 0.5183603, 0.0492912,
	-0.0085287, 0.0400428, 0.9684867,
}

// bradfordAdaptationMatrix computes the 3x3 matrix that adapts an XYZ
// tristimulus value from srcWhite to dstWhite via the Bradford cone space.
func bradfordAdaptationMatrix(srcWhite, dstWhite [3]float64) mat3 {
	srcCone := bradfordM.apply(srcWhite)
	dstCone := bradfordM.apply(dstWhite)

	var diag mat3
	diag[0] = ratio(dstCone[0], srcCone[0])
	diag[4] = ratio(dstCone[1], srcCone[1])
	diag[8] = ratio(dstCone[2], srcCone[2])

	return mulMat3(bradfordMInv, mulMat3(diag, bradfordM))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 1
	}
	return num / den
}

// adaptWhite adapts an XYZ triple from srcWhite to dstWhite using Bradford.
func adaptWhite(xyz, srcWhite, dstWhite [3]float64) [3]float64 {
	if srcWhite == dstWhite {
		return xyz
	}
	m := bradfordAdaptationMatrix(srcWhite, dstWhite)
	return m.apply(xyz)
}

// cmsLabToLabD50 adapts a caller-supplied Lab value (relative to srcWhite)
// to the D50-referenced LabD50 encoding, via XYZ + Bradford (spec §4.2
// Phase A). If srcWhite is already D50, this is the identity.
func cmsLabToLabD50(lab, srcWhite [3]float64) [3]float64 {
	xyz := labToXYZWhite(lab, srcWhite)
	adapted := adaptWhite(xyz, srcWhite, d50Illuminant)
	return xyzToLabWhite(adapted, d50Illuminant)
}

// labD50ToCmsLab is the inverse of cmsLabToLabD50, used when lab_adaptation
// is requested on output.
func labD50ToCmsLab(lab, dstWhite [3]float64) [3]float64 {
	xyz := labToXYZWhite(lab, d50Illuminant)
	adapted := adaptWhite(xyz, d50Illuminant, dstWhite)
	return xyzToLabWhite(adapted, dstWhite)
}
