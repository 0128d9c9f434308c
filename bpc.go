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

// perceptualBlackXYZ is the fixed black point ICC v4 perceptual and
// saturation intent tables assume (spec §4.4).
var perceptualBlackXYZ = [3]float64{0.00336, 0.0034731, 0.00287}

// blackPointXYZ estimates a profile's black point in PCSXYZ, following
// the detection rules in spec §4.4:
//   - absolute intent, or a device-link/abstract/named-colour profile,
//     or an RGB-matrix profile: black is (0,0,0)
//   - a v4 profile under perceptual or saturation intent: the fixed
//     perceptual black point
//   - a CMYK profile under relative colorimetric intent specifically: the
//     ink-limited round trip (zero CMY, full K)
//   - otherwise (including a CMYK profile under any other intent): the
//     max-colourant round trip, with the resulting L* clamped to [0,50]
func blackPointXYZ(cfg *Config, v *profileView, intent RenderingIntent) ([3]float64, error) {
	if intent == AbsoluteColorimetric {
		return [3]float64{0, 0, 0}, nil
	}
	switch v.profile.Class {
	case DeviceLinkProfile, AbstractProfile, NamedColorProfile:
		return [3]float64{0, 0, 0}, nil
	}
	if v.kind == pkRGBMatrix || v.kind == pkDuo {
		return [3]float64{0, 0, 0}, nil
	}

	isV4 := v.profile.Version>>24 >= 4
	if isV4 && (intent == Perceptual || intent == Saturation) {
		return xyzToPCSXYZ(perceptualBlackXYZ), nil
	}

	tmpCfg := cfg.tempForBPC()
	stages, pcsEnc, err := deviceToPCSStages(tmpCfg, v, intent)
	if err != nil {
		return [3]float64{}, err
	}

	n := v.numDeviceChannels
	device := make([]float64, n)
	// the ink-limited round trip only applies to a CMYK profile under
	// relative colorimetric intent (spec §4.4); any other intent reaching
	// this point (e.g. a v2 CMYK profile under Perceptual, which skips the
	// v4-only fixed-black branch above) falls through to the generic
	// max-colourant round trip below.
	isCMYK := v.profile.ColorSpace == CMYKSpace && intent == RelativeColorimetric
	if isCMYK {
		device[n-1] = 1 // zero C/M/Y, full K
	} else {
		for i := range device {
			device[i] = 1
		}
	}

	val := device
	for _, s := range stages {
		val = s.Eval(val)
	}
	for _, s := range toPCSXYZStages(pcsEnc) {
		val = s.Eval(val)
	}
	if len(val) < 3 {
		return [3]float64{}, nil
	}
	xyzPCS := [3]float64{val[0], val[1], val[2]}

	if !isCMYK {
		xyz := pcsXYZToXYZ(xyzPCS)
		lab := xyzToLabD50(xyz)
		lab[0] = clamp(lab[0], 0, 50)
		xyzPCS = xyzToPCSXYZ(labD50ToXYZ(lab))
	}
	return xyzPCS, nil
}

// computeBPC derives the per-channel affine (spec §4.4) that maps the
// input profile's detected black point onto the output profile's,
// while leaving the D50 white point fixed. It returns (nil, nil) when
// the resulting transform would be the identity.
func computeBPC(cfg *Config, in, out *profileView, intent RenderingIntent) (*bpcParams, error) {
	inBlack, err := blackPointXYZ(cfg, in, intent)
	if err != nil {
		return nil, err
	}
	outBlack, err := blackPointXYZ(cfg, out, intent)
	if err != nil {
		return nil, err
	}

	white := xyzToPCSXYZ(d50Illuminant)
	var p bpcParams
	identity := true
	for i := 0; i < 3; i++ {
		denom := white[i] - inBlack[i]
		scale := 1.0
		if absf(denom) > 1e-9 {
			scale = (white[i] - outBlack[i]) / denom
		}
		offset := outBlack[i] - scale*inBlack[i]
		p.Scale[i] = scale
		p.Offset[i] = offset
		if absf(scale-1) > 1e-9 || absf(offset) > 1e-9 {
			identity = false
		}
	}
	if identity {
		return nil, nil
	}
	return &p, nil
}
