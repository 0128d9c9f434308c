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

// DataFormat selects the I/O representation Forward/TransformArray use.
type DataFormat int

// Recognised data formats.
const (
	// FormatObject carries Lab/RGB/CMYK/XYZ "object" values with their
	// natural channel ranges (see spec §4.1).
	FormatObject DataFormat = iota
	// FormatObjectFloat is FormatObject with every channel normalised to [0,1].
	FormatObjectFloat
	// FormatInt8 carries 8-bit integer channel values, 0-255.
	FormatInt8
	// FormatInt16 carries 16-bit integer channel values, 0-65535.
	FormatInt16
	// FormatDevice carries raw [0,1] device-encoded floats, no curves applied.
	FormatDevice
)

func (f DataFormat) String() string {
	switch f {
	case FormatObject:
		return "object"
	case FormatObjectFloat:
		return "objectFloat"
	case FormatInt8:
		return "int8"
	case FormatInt16:
		return "int16"
	case FormatDevice:
		return "device"
	default:
		return "unknown"
	}
}

// InterpolationMethod selects the sampler used for a 3D or 4D CLUT.
type InterpolationMethod int

// Supported interpolation methods.
const (
	InterpolationTetrahedral InterpolationMethod = iota
	InterpolationTrilinear
)

func (m InterpolationMethod) String() string {
	if m == InterpolationTrilinear {
		return "trilinear"
	}
	return "tetrahedral"
}

// Config holds the construction-time options for a Transform. Build one
// with New and its options, then pass it to Create.
type Config struct {
	builtLUT bool

	gridPoints3D int
	gridPoints4D int

	interpolation3D InterpolationMethod
	interpolation4D InterpolationMethod
	lutInterpolation3D InterpolationMethod
	lutInterpolation4D InterpolationMethod

	interpolationFast bool

	dataFormat DataFormat

	labAdaptation      bool
	labInputAdaptation bool

	displayChromaticAdaptation bool

	pipelineDebug bool

	optimise bool

	roundOutput bool
	precession  int

	bpc      bool
	bpcPerHop []bool

	lutBase64 bool

	clipRGBInPipeline bool

	// rgbMatrixWhiteAdaptation mirrors the source's
	// `_RGBMatrixWhiteAdadaptation` flag. It is stored but not read by any
	// pipeline stage, so it does not change absolute-vs-relative handling
	// for RGB-matrix profiles. See SPEC_FULL.md §11.
	rgbMatrixWhiteAdaptation bool

	verbose bool
}

// Option configures a Config. Pass one or more to New.
type Option func(*Config)

// New builds a Config from the given options, applying documented
// defaults for anything not set.
func New(opts ...Option) *Config {
	cfg := &Config{
		gridPoints3D:       33,
		gridPoints4D:       17,
		interpolation3D:    InterpolationTetrahedral,
		interpolation4D:    InterpolationTetrahedral,
		lutInterpolation3D: InterpolationTetrahedral,
		lutInterpolation4D: InterpolationTetrahedral,
		interpolationFast:  true,
		dataFormat:         FormatObject,
		labInputAdaptation: true,
		optimise:           true,
		roundOutput:        true,
		bpc:                true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithBuiltLUT bakes a CLUT during Create.
func WithBuiltLUT(v bool) Option { return func(c *Config) { c.builtLUT = v } }

// WithGridPoints3D sets the grid resolution for <=3-D baking (default 33).
func WithGridPoints3D(n int) Option { return func(c *Config) { c.gridPoints3D = n } }

// WithGridPoints4D sets the grid resolution for 4-D baking (default 17).
func WithGridPoints4D(n int) Option { return func(c *Config) { c.gridPoints4D = n } }

// WithInterpolation3D selects the sampler used for 3-D CLUTs.
func WithInterpolation3D(m InterpolationMethod) Option { return func(c *Config) { c.interpolation3D = m } }

// WithInterpolation4D selects the sampler used for 4-D CLUTs.
func WithInterpolation4D(m InterpolationMethod) Option { return func(c *Config) { c.interpolation4D = m } }

// WithLUTInterpolation3D selects the sampler used against a cached 3-D CLUT.
func WithLUTInterpolation3D(m InterpolationMethod) Option {
	return func(c *Config) { c.lutInterpolation3D = m }
}

// WithLUTInterpolation4D selects the sampler used against a cached 4-D CLUT.
func WithLUTInterpolation4D(m InterpolationMethod) Option {
	return func(c *Config) { c.lutInterpolation4D = m }
}

// WithInterpolationFast toggles the channel-specialised interpolators
// (default true).
func WithInterpolationFast(v bool) Option { return func(c *Config) { c.interpolationFast = v } }

// WithDataFormat selects the I/O representation.
func WithDataFormat(f DataFormat) Option { return func(c *Config) { c.dataFormat = f } }

// WithLabAdaptation adapts output Lab to D50.
func WithLabAdaptation(v bool) Option { return func(c *Config) { c.labAdaptation = v } }

// WithLabInputAdaptation adapts input cmsLab's white point to D50 (default true).
func WithLabInputAdaptation(v bool) Option { return func(c *Config) { c.labInputAdaptation = v } }

// WithDisplayChromaticAdaptation inserts a PCS-space Bradford stage between
// profiles with differing media whites.
func WithDisplayChromaticAdaptation(v bool) Option {
	return func(c *Config) { c.displayChromaticAdaptation = v }
}

// WithPipelineDebug records the intermediate value after every stage.
func WithPipelineDebug(v bool) Option { return func(c *Config) { c.pipelineDebug = v } }

// WithOptimise runs (or skips) the peephole optimiser (default true).
func WithOptimise(v bool) Option { return func(c *Config) { c.optimise = v } }

// WithRoundOutput rounds object-output values (default true).
func WithRoundOutput(v bool) Option { return func(c *Config) { c.roundOutput = v } }

// WithPrecession sets the number of decimal places used when rounding.
func WithPrecession(n int) Option { return func(c *Config) { c.precession = n } }

// WithBPC switches automatic black-point compensation on or off (default
// on) and clears any per-hop setting. When on, BPC is applied only to hops
// that meet the auto-enable conditions (a v4 profile under perceptual or
// saturation intent; a Gray input profile with kTRC and no A2B); use
// [WithBPCPerHop] to force it on or off for a given hop.
func WithBPC(v bool) Option {
	return func(c *Config) {
		c.bpc = v
		c.bpcPerHop = nil
	}
}

// WithBPCPerHop sets BPC independently for each hop, indexed by hop number.
func WithBPCPerHop(perHop []bool) Option {
	return func(c *Config) {
		c.bpcPerHop = append([]bool(nil), perHop...)
	}
}

// WithLUTBase64 selects the base64-packed CLUT payload ("encoding":
// "base64" in the persisted layout, spec §3) over the default plain
// number array when baking a LUT for [Transform.ExportLUT].
func WithLUTBase64(v bool) Option { return func(c *Config) { c.lutBase64 = v } }

// WithClipRGBInPipeline clips RGB to [0,1] inside matrix stages.
func WithClipRGBInPipeline(v bool) Option { return func(c *Config) { c.clipRGBInPipeline = v } }

// WithRGBMatrixWhiteAdaptation sets the flag mirroring the source's
// `_RGBMatrixWhiteAdadaptation`. See the Config field doc comment.
func WithRGBMatrixWhiteAdaptation(v bool) Option {
	return func(c *Config) { c.rgbMatrixWhiteAdaptation = v }
}

// WithVerbose emits build diagnostics via zap during Create.
func WithVerbose(v bool) Option { return func(c *Config) { c.verbose = v } }

// tempForBPC returns a copy of cfg suitable for a temporary transform used
// during black-point detection, with BPC auto-enable disabled to break
// the recursion (spec §4.4, §5, §9).
func (c *Config) tempForBPC() *Config {
	clone := *c
	clone.bpc = false
	clone.bpcPerHop = nil
	clone.builtLUT = false
	clone.pipelineDebug = false
	clone.verbose = false
	return &clone
}
