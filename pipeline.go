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

import "go.uber.org/zap"

// ChainEntry is one element of a profile chain: either a profile or the
// intent governing the hop that follows it. Chains alternate
// profile/intent/profile/... (spec §3's "even positions are profiles,
// odd positions are intents").
type ChainEntry struct {
	Profile  *Profile
	Intent   RenderingIntent
	isIntent bool
}

// ProfileElem wraps a profile as a chain entry.
func ProfileElem(p *Profile) ChainEntry { return ChainEntry{Profile: p} }

// IntentElem wraps a rendering intent as a chain entry.
func IntentElem(i RenderingIntent) ChainEntry { return ChainEntry{Intent: i, isIntent: true} }

// StageAnchor names a point in pipeline construction where caller-supplied
// custom stages may be spliced in (spec §4.2 Phase E).
type StageAnchor int

// Recognised anchor points.
const (
	AnchorBeforeInputToDevice StageAnchor = iota
	AnchorBeforeDeviceToPCS
	AnchorAfterDeviceToPCS
	AnchorPCS
	AnchorBeforePCSToDevice
	AnchorAfterPCSToDevice
	AnchorAfterDeviceToOutput
)

// CustomStage is a caller-registered stage inserted at a named anchor.
// Hop selects which hop the anchor applies to for per-hop anchors
// (AnchorBeforeDeviceToPCS, AnchorAfterDeviceToPCS, AnchorPCS,
// AnchorBeforePCSToDevice, AnchorAfterPCSToDevice); it is ignored for the
// two chain-boundary anchors.
type CustomStage struct {
	Anchor StageAnchor
	Hop    int
	Name   string
	Func   StageFunc
}

func customStagesAt(custom []CustomStage, anchor StageAnchor, hop int) []*Stage {
	var out []*Stage
	for _, cs := range custom {
		if cs.Anchor != anchor {
			continue
		}
		if anchor != AnchorBeforeInputToDevice && anchor != AnchorAfterDeviceToOutput && cs.Hop != hop {
			continue
		}
		name := cs.Name
		if name == "" {
			name = "custom"
		}
		out = append(out, customStage(name, EncDevice, EncDevice, cs.Func))
	}
	return out
}

// parseChain validates a chain entry list against spec §3's invariants
// (odd length >= 3, alternating profile/intent/profile/...) and splits it
// into the profile and intent sequences the builder consumes.
func parseChain(chain []ChainEntry) ([]*Profile, []RenderingIntent, error) {
	if len(chain) < 3 || len(chain)%2 == 0 {
		return nil, nil, errChain(len(chain), "chain length must be odd and >= 3")
	}
	n := (len(chain) + 1) / 2
	profiles := make([]*Profile, 0, n)
	intents := make([]RenderingIntent, 0, n-1)
	for i, entry := range chain {
		if i%2 == 0 {
			if entry.isIntent || entry.Profile == nil {
				return nil, nil, errChain(i, "expected a profile at this position")
			}
			profiles = append(profiles, entry.Profile)
		} else {
			if !entry.isIntent {
				return nil, nil, errChain(i, "expected an intent at this position")
			}
			intents = append(intents, entry.Intent)
		}
	}
	return profiles, intents, nil
}

// buildPipeline assembles the full stage list for a profile chain,
// following spec §4.2's five phases. The returned stages are not yet
// optimised; callers run runOptimiser separately.
func buildPipeline(cfg *Config, profiles []*Profile, intents []RenderingIntent, custom []CustomStage, logger *zap.Logger) ([]*Stage, error) {
	views := make([]*profileView, len(profiles))
	for i, p := range profiles {
		v, err := newProfileView(p)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}

	var stages []*Stage

	stages = append(stages, customStagesAt(custom, AnchorBeforeInputToDevice, 0)...)

	inStages, cur, err := inputDecodingStages(cfg, views[0])
	if err != nil {
		return nil, err
	}
	stages = append(stages, inStages...)

	nHops := len(views) - 1
	for hop := 0; hop < nHops; hop++ {
		hopStages, out, err := buildHop(cfg, views[hop], views[hop+1], intents[hop], hop, custom, logger)
		if err != nil {
			return nil, err
		}
		stages = append(stages, hopStages...)
		cur = out
	}

	outStages, err := outputEncodingStages(cfg, views[len(views)-1], cur)
	if err != nil {
		return nil, err
	}
	stages = append(stages, outStages...)

	stages = append(stages, customStagesAt(custom, AnchorAfterDeviceToOutput, 0)...)

	if err := checkEncodings(stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// inputDecodingStages implements Phase A.
func inputDecodingStages(cfg *Config, v *profileView) ([]*Stage, Encoding, error) {
	if v.kind == pkLab {
		var stages []*Stage
		switch cfg.dataFormat {
		case FormatObject, FormatObjectFloat:
			if cfg.labInputAdaptation {
				stages = append(stages, encodingConvertStage(convCmsLabToLabD50, EncCmsLab, EncLabD50, d50Illuminant))
			} else {
				stages = append(stages, relabelStage(EncCmsLab, EncLabD50))
			}
		default:
			return nil, 0, errConfig("data_format", cfg.dataFormat.String())
		}
		stages = append(stages, toPCSXYZStages(EncLabD50)...)
		return stages, EncPCSXYZ, nil
	}
	if v.kind == pkXYZ {
		return []*Stage{encodingConvertStage(convXYZToPCSXYZ, EncCmsXYZ, EncPCSXYZ, d50Illuminant)}, EncPCSXYZ, nil
	}

	n := v.numDeviceChannels
	var stages []*Stage
	switch cfg.dataFormat {
	case FormatObjectFloat, FormatDevice:
		// already [0,1] device values
	case FormatObject:
		stages = append(stages, objectToDeviceStage(v))
	case FormatInt8:
		stages = append(stages, intToDeviceStage(n, 1.0/255.0))
	case FormatInt16:
		stages = append(stages, intToDeviceStage(n, 1.0/65535.0))
	default:
		return nil, 0, errConfig("data_format", cfg.dataFormat.String())
	}
	return stages, EncDevice, nil
}

// objectToDeviceStage scales "object" channel ranges (cmsRGB 0-255,
// cmsCMYK 0-100) down to device [0,1].
func objectToDeviceStage(v *profileView) *Stage {
	scale := 1.0 / 255.0
	if v.profile.ColorSpace == CMYKSpace {
		scale = 1.0 / 100.0
	}
	return &Stage{
		InEncoding: EncDevice, OutEncoding: EncDevice, Name: "object_to_device",
		kind: kindCustom, custom: func(input []float64) []float64 {
			out := make([]float64, len(input))
			for i, x := range input {
				out[i] = clamp(x*scale, 0, 1)
			}
			return out
		},
	}
}

// outputEncodingStages implements Phase D. cur is always EncDevice here:
// buildHop's final pcsToDeviceStages call already relabelled the last
// hop's result to EncDevice, even for a Lab/XYZ destination (whose
// "device" values are really its PCS-shaped encoding under another
// name), so the Lab/XYZ branches below first relabel back to that real
// encoding before converting on to the caller-facing cmsLab/cmsXYZ form.
func outputEncodingStages(cfg *Config, v *profileView, cur Encoding) ([]*Stage, error) {
	if v.kind == pkLab {
		stages := []*Stage{relabelStage(cur, v.pcsEncoding())}
		stages = append(stages, toPCSXYZStages(v.pcsEncoding())...)
		stages = append(stages, encodingConvertStage(convPCSXYZToLabD50, EncPCSXYZ, EncLabD50, d50Illuminant))
		if cfg.labAdaptation {
			stages = append(stages, relabelStage(EncLabD50, EncCmsLab))
		} else {
			stages = append(stages, encodingConvertStage(convLabD50ToCmsLab, EncLabD50, EncCmsLab, d50Illuminant))
		}
		return stages, nil
	}
	if v.kind == pkXYZ {
		return []*Stage{
			relabelStage(cur, EncPCSXYZ),
			encodingConvertStage(convPCSXYZToXYZ, EncPCSXYZ, EncCmsXYZ, d50Illuminant),
		}, nil
	}

	// cur is already real device values here (buildHop's pcsToDeviceStages
	// fully decoded this profile); only the object-format scaling remains.
	var stages []*Stage
	n := v.numDeviceChannels
	switch cfg.dataFormat {
	case FormatObjectFloat, FormatDevice:
	case FormatObject:
		stages = append(stages, deviceToObjectStage(v, cfg))
	case FormatInt8:
		stages = append(stages, deviceToIntStage(n, 255))
	case FormatInt16:
		stages = append(stages, deviceToIntStage(n, 65535))
	default:
		return nil, errConfig("data_format", cfg.dataFormat.String())
	}
	return stages, nil
}

func deviceToObjectStage(v *profileView, cfg *Config) *Stage {
	scale := 255.0
	if v.profile.ColorSpace == CMYKSpace {
		scale = 100.0
	}
	round := cfg.roundOutput
	precession := cfg.precession
	return &Stage{
		InEncoding: EncDevice, OutEncoding: EncDevice, Name: "device_to_object",
		kind: kindCustom, custom: func(input []float64) []float64 {
			out := make([]float64, len(input))
			for i, x := range input {
				val := clamp(x, 0, 1) * scale
				if round {
					out[i] = roundToPrecession(val, precession)
				} else {
					out[i] = val
				}
			}
			return out
		},
	}
}

func roundToPrecession(v float64, precession int) float64 {
	mul := 1.0
	for i := 0; i < precession; i++ {
		mul *= 10
	}
	return roundHalfAwayFromZero(v*mul) / mul
}

// toPCSXYZStages converts from the given encoding into the hop bus
// encoding, PCSXYZ, via LabD50 when necessary.
func toPCSXYZStages(from Encoding) []*Stage {
	switch from {
	case EncPCSXYZ:
		return nil
	case EncLabD50:
		return []*Stage{encodingConvertStage(convLabD50ToPCSXYZ, EncLabD50, EncPCSXYZ, d50Illuminant)}
	case EncPCSv4:
		return []*Stage{
			encodingConvertStage(convPCSv4ToLabD50, EncPCSv4, EncLabD50, d50Illuminant),
			encodingConvertStage(convLabD50ToPCSXYZ, EncLabD50, EncPCSXYZ, d50Illuminant),
		}
	case EncPCSv2:
		return []*Stage{
			encodingConvertStage(convPCSv2ToLabD50, EncPCSv2, EncLabD50, d50Illuminant),
			encodingConvertStage(convLabD50ToPCSXYZ, EncLabD50, EncPCSXYZ, d50Illuminant),
		}
	default:
		return nil
	}
}

// fromPCSXYZStages is the symmetric reverse of toPCSXYZStages.
func fromPCSXYZStages(cur Encoding, to Encoding) []*Stage {
	var stages []*Stage
	if cur != EncPCSXYZ {
		stages = append(stages, toPCSXYZStages(cur)...)
	}
	switch to {
	case EncPCSXYZ:
	case EncLabD50:
		stages = append(stages, encodingConvertStage(convPCSXYZToLabD50, EncPCSXYZ, EncLabD50, d50Illuminant))
	case EncPCSv4:
		stages = append(stages,
			encodingConvertStage(convPCSXYZToLabD50, EncPCSXYZ, EncLabD50, d50Illuminant),
			encodingConvertStage(convLabD50ToPCSv4, EncLabD50, EncPCSv4, d50Illuminant),
		)
	case EncPCSv2:
		stages = append(stages,
			encodingConvertStage(convPCSXYZToLabD50, EncPCSXYZ, EncLabD50, d50Illuminant),
			encodingConvertStage(convLabD50ToPCSv2, EncLabD50, EncPCSv2, d50Illuminant),
		)
	case EncDevice:
		stages = append(stages, relabelStage(EncPCSXYZ, EncDevice))
	}
	return stages
}

// buildHop implements Phase B (device->PCS, BPC, chromatic adaptation,
// PCS->device) and Phase C (absolute-intent adaptation) for one hop.
func buildHop(cfg *Config, in, out *profileView, intent RenderingIntent, hop int, custom []CustomStage, logger *zap.Logger) ([]*Stage, Encoding, error) {
	var stages []*Stage

	stages = append(stages, customStagesAt(custom, AnchorBeforeDeviceToPCS, hop)...)

	d2p, pcsEnc, err := deviceToPCSStages(cfg, in, intent)
	if err != nil {
		return nil, 0, err
	}
	stages = append(stages, d2p...)

	stages = append(stages, customStagesAt(custom, AnchorAfterDeviceToPCS, hop)...)

	stages = append(stages, toPCSXYZStages(pcsEnc)...)

	if intent == AbsoluteColorimetric {
		stages = append(stages, matrixStage("abs_adapt_in", EncPCSXYZ, EncPCSXYZ, mat34{Linear: diagMat3(in.absScale)}))
	}

	if bpcEnabledFor(cfg, in, out, intent, hop) {
		logger.Debug("enabling black-point compensation", zap.Int("hop", hop))
		params, err := computeBPC(cfg, in, out, intent)
		if err != nil {
			return nil, 0, err
		}
		if params != nil {
			stages = append(stages, bpcStage(EncPCSXYZ, EncPCSXYZ, *params))
		}
	}

	if cfg.displayChromaticAdaptation && in.mediaWhite != out.mediaWhite {
		m := bradfordAdaptationMatrix(in.mediaWhite, out.mediaWhite)
		stages = append(stages, matrixStage("chromatic_adaptation", EncPCSXYZ, EncPCSXYZ, mat34{Linear: m}))
	}

	if intent == AbsoluteColorimetric {
		inv, ok := invertMat3(diagMat3(out.absScale))
		if !ok {
			inv = identityMat3()
		}
		stages = append(stages, matrixStage("abs_adapt_out", EncPCSXYZ, EncPCSXYZ, mat34{Linear: inv}))
	}

	stages = append(stages, customStagesAt(custom, AnchorPCS, hop)...)

	stages = append(stages, customStagesAt(custom, AnchorBeforePCSToDevice, hop)...)

	p2dIn, err := pcsToDeviceInputEncoding(out)
	if err != nil {
		return nil, 0, err
	}
	stages = append(stages, fromPCSXYZStages(EncPCSXYZ, p2dIn)...)

	p2d, err := pcsToDeviceStages(cfg, out, intent)
	if err != nil {
		return nil, 0, err
	}
	stages = append(stages, p2d...)

	stages = append(stages, customStagesAt(custom, AnchorAfterPCSToDevice, hop)...)

	return stages, EncDevice, nil
}

// bpcEnabledFor decides whether the given hop gets a BPC stage. An
// explicit per-hop override (cfg.bpcPerHop) forces the decision either
// way; otherwise the bare cfg.bpc toggle only gates the two auto-enable
// conditions spec §4.2 names -- it does not force BPC on for every hop.
func bpcEnabledFor(cfg *Config, in, out *profileView, intent RenderingIntent, hop int) bool {
	if intent == AbsoluteColorimetric {
		return false
	}
	if in.kind == pkRGBMatrix || out.kind == pkRGBMatrix || in.kind == pkDuo || out.kind == pkDuo {
		return false
	}

	if cfg.bpcPerHop != nil {
		if hop < len(cfg.bpcPerHop) {
			return cfg.bpcPerHop[hop]
		}
		return false
	}
	if !cfg.bpc {
		return false
	}

	v4 := in.profile.Version>>24 >= 4 || out.profile.Version>>24 >= 4
	if v4 && (intent == Perceptual || intent == Saturation) {
		return true
	}
	if in.kind == pkGray && in.grayTRC != nil && !hasAnyTag(in.profile, AToB0, AToB1, AToB2) {
		return true
	}
	return false
}

// pcsToDeviceInputEncoding reports the encoding a profile's own B2A
// table (or matrix/gray/Lab path) expects to receive.
func pcsToDeviceInputEncoding(v *profileView) (Encoding, error) {
	if hasAnyTag(v.profile, BToA0, BToA1, BToA2) {
		return v.pcsEncoding(), nil
	}
	switch v.kind {
	case pkRGBMatrix:
		return EncPCSXYZ, nil
	case pkGray:
		return EncPCSXYZ, nil
	case pkLab:
		return v.pcsEncoding(), nil
	case pkXYZ:
		return EncPCSXYZ, nil
	default:
		return 0, errChain(0, "profile has no B2A path")
	}
}

// deviceToPCSStages implements Phase B step 1.
func deviceToPCSStages(cfg *Config, v *profileView, intent RenderingIntent) ([]*Stage, Encoding, error) {
	switch {
	case hasAnyTag(v.profile, AToB0, AToB1, AToB2):
		lut, err := v.lutA2B(intent)
		if err != nil {
			return nil, 0, err
		}
		method, fast := methodFor(cfg, lut.InputChannels())
		return []*Stage{profileLutStage("interp_a2b", EncDevice, v.pcsEncoding(), lut, method, fast)}, v.pcsEncoding(), nil

	case v.kind == pkRGBMatrix:
		return rgbMatrixToPCSStages(v), EncPCSXYZ, nil

	case v.kind == pkGray && v.grayTRC != nil:
		return grayToPCSStages(v), EncPCSXYZ, nil

	case v.kind == pkLab:
		return []*Stage{relabelStage(EncDevice, v.pcsEncoding())}, v.pcsEncoding(), nil

	case v.kind == pkXYZ:
		return []*Stage{relabelStage(EncDevice, EncPCSXYZ)}, EncPCSXYZ, nil

	default:
		return nil, 0, errChain(0, "profile has no device->PCS path")
	}
}

// pcsToDeviceStages implements Phase B step 4.
func pcsToDeviceStages(cfg *Config, v *profileView, intent RenderingIntent) ([]*Stage, error) {
	switch {
	case hasAnyTag(v.profile, BToA0, BToA1, BToA2):
		lut, err := v.lutB2A(intent)
		if err != nil {
			return nil, err
		}
		method, fast := methodFor(cfg, lut.InputChannels())
		return []*Stage{profileLutStage("interp_b2a", v.pcsEncoding(), EncDevice, lut, method, fast)}, nil

	case v.kind == pkRGBMatrix:
		return pcsToRGBMatrixStages(v), nil

	case v.kind == pkGray && v.grayTRC != nil:
		return pcsToGrayStages(v), nil

	case v.kind == pkLab:
		return []*Stage{relabelStage(v.pcsEncoding(), EncDevice)}, nil

	case v.kind == pkXYZ:
		return []*Stage{relabelStage(EncPCSXYZ, EncDevice)}, nil

	default:
		return nil, errChain(0, "profile has no PCS->device path")
	}
}

func methodFor(cfg *Config, channels int) (InterpolationMethod, bool) {
	if channels == 4 {
		return cfg.interpolation4D, cfg.interpolationFast
	}
	return cfg.interpolation3D, cfg.interpolationFast
}

// rgbMatrixToPCSStages: TRC -> 3x3 matrix (device RGB -> XYZ) -> PCSXYZ.
// The matrix scale factor (spec §4.2 step 1 RGBMatrix) is folded into the
// surrounding encoding-convert stage rather than the matrix itself, so the
// optimiser's consecutive-matrix-fusion rule still applies to matrix_rgb
// stages emitted back to back (e.g. chromatic adaptation between two
// RGB-matrix profiles with BPC/adaptation disabled).
func rgbMatrixToPCSStages(v *profileView) []*Stage {
	return []*Stage{
		curvesStage("curve_trc", EncDevice, EncDevice, v.trc[:]),
		matrixStage("matrix_rgb", EncDevice, EncCmsXYZ, mat34{Linear: v.matrix}),
		encodingConvertStage(convXYZToPCSXYZ, EncCmsXYZ, EncPCSXYZ, d50Illuminant),
	}
}

func pcsToRGBMatrixStages(v *profileView) []*Stage {
	return []*Stage{
		encodingConvertStage(convPCSXYZToXYZ, EncPCSXYZ, EncCmsXYZ, d50Illuminant),
		matrixStage("matrix_rgb_inv", EncCmsXYZ, EncDevice, mat34{Linear: v.matrixInv}),
		inverseCurvesStage("curve_trc_inv", EncDevice, EncDevice, v.trc[:]),
	}
}

// grayToPCSStages scatters a single gray channel across (X,Y,Z)
// proportional to D50, or places it at L with a=b=0.5 for a Lab PCS
// (spec §4.2 step 1, Gray-with-kTRC-and-no-A2B case).
func grayToPCSStages(v *profileView) []*Stage {
	curve := v.grayTRC
	if v.pcsIsLab {
		return []*Stage{
			{
				InEncoding: EncDevice, OutEncoding: EncCmsXYZ, Name: "gray_scatter_lab",
				kind: kindCustom, custom: func(input []float64) []float64 {
					if len(input) < 1 {
						return []float64{0, 0, 0}
					}
					l := curve.Evaluate(input[0]) * 100
					lab := [3]float64{l, 0, 0}
					return sliceOf3(labD50ToXYZ(lab))
				},
			},
			encodingConvertStage(convXYZToPCSXYZ, EncCmsXYZ, EncPCSXYZ, d50Illuminant),
		}
	}
	return []*Stage{
		{
			InEncoding: EncDevice, OutEncoding: EncPCSXYZ, Name: "gray_scatter_xyz",
			kind: kindCustom, custom: func(input []float64) []float64 {
				if len(input) < 1 {
					return []float64{0, 0, 0}
				}
				y := curve.Evaluate(input[0])
				xyz := [3]float64{d50Illuminant[0] * y, d50Illuminant[1] * y, d50Illuminant[2] * y}
				return sliceOf3(xyzToPCSXYZ(xyz))
			},
		},
	}
}

func pcsToGrayStages(v *profileView) []*Stage {
	curve := v.grayTRC
	isLab := v.pcsIsLab
	return []*Stage{
		{
			InEncoding: EncPCSXYZ, OutEncoding: EncDevice, Name: "gray_gather",
			kind: kindCustom, custom: func(input []float64) []float64 {
				if len(input) < 3 {
					return []float64{0}
				}
				var y float64
				if isLab {
					xyz := pcsXYZToXYZ([3]float64{input[0], input[1], input[2]})
					lab := xyzToLabD50(xyz)
					y = clamp(lab[0]/100, 0, 1)
				} else {
					xyz := pcsXYZToXYZ([3]float64{input[0], input[1], input[2]})
					if d50Illuminant[1] != 0 {
						y = clamp(xyz[1]/d50Illuminant[1], 0, 1)
					}
				}
				return []float64{curve.Invert(y)}
			},
		},
	}
}

func sliceOf3(v [3]float64) []float64 { return []float64{v[0], v[1], v[2]} }

// checkEncodings verifies the builder invariant that every stage's output
// encoding equals its successor's input encoding (spec §4.2 Validation,
// §8 invariant list).
func checkEncodings(stages []*Stage) error {
	for i := 0; i+1 < len(stages); i++ {
		if stages[i].OutEncoding != stages[i+1].InEncoding {
			return errInvariant(i, stages[i].OutEncoding, stages[i+1].InEncoding, "stage output encoding does not match successor input encoding")
		}
	}
	return nil
}
