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

// profileKind classifies a profile for pipeline-construction purposes,
// generalising the teacher package's narrower profileType (which only
// distinguished matrix/TRC, gray TRC, and LUT).
type profileKind int

const (
	pkGray profileKind = iota
	pkDuo
	pkRGBMatrix
	pkRGBLut
	pkCMYK
	pkLab
	pkXYZ
	pkDeviceLink
)

func (k profileKind) String() string {
	switch k {
	case pkGray:
		return "Gray"
	case pkDuo:
		return "Duo"
	case pkRGBMatrix:
		return "RGBMatrix"
	case pkRGBLut:
		return "RGBLut"
	case pkCMYK:
		return "CMYK"
	case pkLab:
		return "Lab"
	case pkXYZ:
		return "XYZ"
	case pkDeviceLink:
		return "DeviceLink"
	default:
		return "Unknown"
	}
}

// profileView derives the attributes the pipeline builder needs from a
// decoded *Profile: class/kind, PCS shape, media white, per-channel TRCs
// and inverses, the RGB primaries matrix and its inverse, and the
// absolute-intent scale triple. It is built once per profile and reused
// across every hop that references the same profile.
type profileView struct {
	profile *Profile
	kind    profileKind

	numDeviceChannels int
	pcsIsLab          bool

	mediaWhite [3]float64
	absScale   [3]float64

	matrix    mat3 // device RGB -> XYZ, identity for non RGB-matrix kinds
	matrixInv mat3
	hasMatrix bool

	trc     [3]*Curve // R, G, B; nil for non RGB-matrix kinds
	grayTRC *Curve    // nil unless kind == pkGray
}

func newProfileView(p *Profile) (*profileView, error) {
	if p == nil {
		return nil, errChain(0, "profile is nil")
	}

	v := &profileView{
		profile:           p,
		numDeviceChannels: p.ColorSpace.NumComponents(),
		pcsIsLab:          p.PCS == PCSLabSpace,
		mediaWhite:        d50Illuminant,
	}

	if data, ok := p.TagData[MediaWhitePoint]; ok {
		if xyz, err := parseXYZTag(data); err == nil {
			v.mediaWhite = xyz
		}
	}
	v.absScale = [3]float64{
		ratio(v.mediaWhite[0], d50Illuminant[0]),
		ratio(v.mediaWhite[1], d50Illuminant[1]),
		ratio(v.mediaWhite[2], d50Illuminant[2]),
	}

	kind, err := classifyProfile(p)
	if err != nil {
		return nil, err
	}
	v.kind = kind

	if kind == pkRGBMatrix {
		if err := v.initMatrixTRC(); err != nil {
			return nil, err
		}
	}
	if kind == pkGray {
		if data, ok := p.TagData[GrayTRC]; ok {
			curve, err := DecodeCurve(data)
			if err != nil {
				return nil, err
			}
			v.grayTRC = curve
		}
	}

	return v, nil
}

func classifyProfile(p *Profile) (profileKind, error) {
	if p.Class == DeviceLinkProfile {
		return pkDeviceLink, nil
	}

	hasLut := hasAnyTag(p, AToB0, AToB1, AToB2, BToA0, BToA1, BToA2)
	if hasLut {
		switch p.ColorSpace {
		case RGBSpace:
			return pkRGBLut, nil
		case CMYKSpace:
			return pkCMYK, nil
		case Color2Space:
			return pkDuo, nil
		case GraySpace:
			return pkGray, nil
		case CIELabSpace:
			return pkLab, nil
		case CIEXYZSpace:
			return pkXYZ, nil
		default:
			return pkCMYK, nil
		}
	}

	_, hasRXYZ := p.TagData[RedMatrixColumn]
	_, hasGXYZ := p.TagData[GreenMatrixColumn]
	_, hasBXYZ := p.TagData[BlueMatrixColumn]
	_, hasRTRC := p.TagData[RedTRC]
	_, hasGTRC := p.TagData[GreenTRC]
	_, hasBTRC := p.TagData[BlueTRC]
	if hasRXYZ && hasGXYZ && hasBXYZ && hasRTRC && hasGTRC && hasBTRC {
		return pkRGBMatrix, nil
	}

	if _, ok := p.TagData[GrayTRC]; ok {
		return pkGray, nil
	}

	switch p.ColorSpace {
	case CIELabSpace:
		return pkLab, nil
	case CIEXYZSpace:
		return pkXYZ, nil
	case Color2Space:
		return pkDuo, nil
	}

	return pkCMYK, errChain(0, "profile has neither a LUT nor a matrix/TRC or gray TRC tag set")
}

func hasAnyTag(p *Profile, tags ...TagType) bool {
	for _, t := range tags {
		if _, ok := p.TagData[t]; ok {
			return true
		}
	}
	return false
}

func (v *profileView) initMatrixTRC() error {
	p := v.profile

	rXYZ, err := parseXYZTag(p.TagData[RedMatrixColumn])
	if err != nil {
		return err
	}
	gXYZ, err := parseXYZTag(p.TagData[GreenMatrixColumn])
	if err != nil {
		return err
	}
	bXYZ, err := parseXYZTag(p.TagData[BlueMatrixColumn])
	if err != nil {
		return err
	}

	v.matrix = mat3{
		rXYZ[0], gXYZ[0], bXYZ[0],
		rXYZ[1], gXYZ[1], bXYZ[1],
		rXYZ[2], gXYZ[2], bXYZ[2],
	}
	if inv, ok := invertMat3(v.matrix); ok {
		v.matrixInv = inv
		v.hasMatrix = true
	} else {
		return errChain(0, "singular RGB primaries matrix")
	}

	rTRC, err := DecodeCurve(p.TagData[RedTRC])
	if err != nil {
		return err
	}
	gTRC, err := DecodeCurve(p.TagData[GreenTRC])
	if err != nil {
		return err
	}
	bTRC, err := DecodeCurve(p.TagData[BlueTRC])
	if err != nil {
		return err
	}
	v.trc = [3]*Curve{rTRC, gTRC, bTRC}

	return nil
}

// parseXYZTag parses an XYZType tag payload (the wire format used by
// MediaWhitePoint and the *MatrixColumn tags), the way the teacher
// package's old transform.go did, generalised under a name that does
// not collide with the decoder helpers in lut.go.
func parseXYZTag(data []byte) ([3]float64, error) {
	if len(data) < 20 {
		return [3]float64{}, errInvalidTagData
	}
	if string(data[0:4]) != "XYZ " {
		return [3]float64{}, errUnexpectedType
	}
	x := getS15Fixed16(data, 8)
	y := getS15Fixed16(data, 12)
	z := getS15Fixed16(data, 16)
	return [3]float64{x, y, z}, nil
}

// a2bTag returns the A2B tag selected for the given intent, falling
// back to AToB0 if the profile does not carry a tag for that intent
// (spec §4.2 Phase B step 1; absolute maps to the relative table).
func a2bTag(p *Profile, intent RenderingIntent) TagType {
	var tag TagType
	switch intent {
	case Perceptual:
		tag = AToB0
	case RelativeColorimetric, AbsoluteColorimetric:
		tag = AToB1
	case Saturation:
		tag = AToB2
	default:
		tag = AToB0
	}
	if _, ok := p.TagData[tag]; !ok {
		tag = AToB0
	}
	return tag
}

// b2aTag is the B2A analogue of a2bTag.
func b2aTag(p *Profile, intent RenderingIntent) TagType {
	var tag TagType
	switch intent {
	case Perceptual:
		tag = BToA0
	case RelativeColorimetric, AbsoluteColorimetric:
		tag = BToA1
	case Saturation:
		tag = BToA2
	default:
		tag = BToA0
	}
	if _, ok := p.TagData[tag]; !ok {
		tag = BToA0
	}
	return tag
}

func (v *profileView) lutA2B(intent RenderingIntent) (Lut, error) {
	tag := a2bTag(v.profile, intent)
	data, ok := v.profile.TagData[tag]
	if !ok {
		return nil, errChain(0, "profile has no A2B LUT tag")
	}
	return DecodeLut(data)
}

func (v *profileView) lutB2A(intent RenderingIntent) (Lut, error) {
	tag := b2aTag(v.profile, intent)
	data, ok := v.profile.TagData[tag]
	if !ok {
		return nil, errChain(0, "profile has no B2A LUT tag")
	}
	return DecodeLut(data)
}

// pcsEncoding returns the encoding a profile's own A2B/B2A LUT output
// (or matrix/TRC stage) lands in before any further conversion: PCSv2
// for a v2 profile, PCSv4 for a v4 profile, PCSXYZ when the PCS is XYZ.
func (v *profileView) pcsEncoding() Encoding {
	if v.profile.PCS == PCSXYZSpace {
		return EncPCSXYZ
	}
	if v.profile.Version>>24 >= 4 {
		return EncPCSv4
	}
	return EncPCSv2
}
