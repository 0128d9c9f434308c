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
	"encoding/json"
	"strings"
)

// Transform performs colour conversions along a chain of one or more ICC
// profile hops, each with its own rendering intent. It subsumes the
// single-profile device<->PCS conversion (a two-profile chain, one hop)
// and the multi-profile device-link case (an N-profile chain).
//
// Build one with [Create] or [CreateMultiStage], then convert colours
// with [Transform.Forward] or [Transform.TransformArray].
//
// A Transform is not safe for concurrent use. If the same Transform needs
// to be used from multiple goroutines, callers must provide their own
// synchronisation.
type Transform struct {
	cfg      *Config
	profiles []*Profile
	intents  []RenderingIntent

	rawStages   []*Stage
	stages      []*Stage
	inChannels  int
	outChannels int

	baked *BakedLUT

	lastHistory []StepInfo
}

// Create builds a Transform for the common two-profile case: device
// colours under `in` convert to the PCS, then to device colours under
// `out`, using the given rendering intent for that one hop.
func Create(cfg *Config, in, out *Profile, intent RenderingIntent, custom ...CustomStage) (*Transform, error) {
	return CreateMultiStage(cfg, []ChainEntry{ProfileElem(in), IntentElem(intent), ProfileElem(out)}, custom...)
}

// CreateMultiStage builds a Transform from an explicit profile/intent
// chain (spec §3's "[P0,I0,P1,I1,...,Pn]" chain model), covering
// device-link-style multi-hop conversions that [Create] cannot express.
func CreateMultiStage(cfg *Config, chain []ChainEntry, custom ...CustomStage) (*Transform, error) {
	if cfg == nil {
		cfg = New()
	}

	profiles, intents, err := parseChain(chain)
	if err != nil {
		return nil, err
	}

	logger := newBuildLogger(cfg.verbose)

	raw, err := buildPipeline(cfg, profiles, intents, custom, logger)
	if err != nil {
		return nil, err
	}

	stages := raw
	if cfg.optimise {
		stages = runOptimiser(raw, logger)
	}

	t := &Transform{
		cfg:         cfg,
		profiles:    profiles,
		intents:     intents,
		rawStages:   raw,
		stages:      stages,
		inChannels:  profiles[0].ColorSpace.NumComponents(),
		outChannels: profiles[len(profiles)-1].ColorSpace.NumComponents(),
	}

	if cfg.builtLUT {
		t.baked = Bake(cfg, t.ChainInfo(), stages, t.inChannels, t.outChannels)
	}

	return t, nil
}

// Forward converts one colour value through the pipeline, returning the
// result in the chain's final encoding.
func (t *Transform) Forward(value []float64) ([]float64, error) {
	if t == nil || len(t.stages) == 0 {
		return nil, errNoPipeline()
	}
	out, history := forward(t.stages, value, t.cfg.pipelineDebug)
	t.lastHistory = history
	return out, nil
}

// TransformArray converts count pixels packed into buf, each inChannels
// values wide (with an optional trailing alpha channel when inAlpha is
// set), writing outChannels values per pixel (with a trailing alpha
// channel when preserveAlpha is set). When the transform carries a baked
// CLUT (built with [WithBuiltLUT], or baked on demand by GetLUT, SetLUT
// or ExportLUT), pixels are looked up in it; otherwise every pixel runs
// the full stage list (spec §4.7's two-path dispatch).
func (t *Transform) TransformArray(buf []float64, count int, inAlpha, preserveAlpha bool) ([]float64, error) {
	if t == nil || len(t.stages) == 0 {
		return nil, errNoPipeline()
	}
	if t.baked != nil {
		method := t.cfg.lutInterpolation3D
		if t.inChannels >= 4 {
			method = t.cfg.lutInterpolation4D
		}
		ref := t.baked.clutRef(method, t.cfg.interpolationFast)
		return transformArrayViaLUT(ref, buf, t.inChannels, t.outChannels, count, inAlpha, preserveAlpha), nil
	}
	return transformArray(t.stages, buf, t.inChannels, t.outChannels, count, inAlpha, preserveAlpha), nil
}

// GetLUT returns the transform's baked CLUT as raw floats, baking one
// from the current stage list first if none exists yet.
func (t *Transform) GetLUT() []float64 {
	t.ensureBaked()
	return t.baked.GetLUT()
}

// GetLUT8 returns the baked CLUT quantised to 8-bit precision.
func (t *Transform) GetLUT8() []byte {
	t.ensureBaked()
	return t.baked.GetLUT8()
}

// GetLUT16 returns the baked CLUT quantised to 16-bit precision.
func (t *Transform) GetLUT16() []uint16 {
	t.ensureBaked()
	return t.baked.GetLUT16()
}

// SetLUT replaces the transform's baked CLUT with clut, switching
// [Transform.TransformArray] onto the cached-grid execution path;
// [Transform.Forward] keeps running the stage list. An error is returned
// if clut's length does not match the existing (or newly baked) grid.
func (t *Transform) SetLUT(clut []float64) error {
	t.ensureBaked()
	return t.baked.SetLUT(clut)
}

// ExportLUT serialises the transform's baked CLUT to the persisted JSON
// layout (spec §3/§6's "chain"/"encoding: number|base64" wire contract),
// baking one from the current stage list first if none exists yet. The
// payload encoding (plain numbers vs. base64) follows [WithLUTBase64].
func (t *Transform) ExportLUT() ([]byte, error) {
	t.ensureBaked()
	return json.Marshal(t.baked)
}

// ImportLUT builds a Transform directly from a previously exported LUT
// (spec §6's set_lut): chain is validated exactly as [CreateMultiStage]
// validates it, then create_pipeline is skipped in favour of a minimal
// pipeline that decodes the input encoding, runs the single interpolator
// against the cached CLUT, and encodes the output (spec §4.2's "cached
// LUT attached" shortcut). Base64 CLUT payloads are decoded on the way in.
func ImportLUT(cfg *Config, chain []ChainEntry, data []byte) (*Transform, error) {
	if cfg == nil {
		cfg = New()
	}

	profiles, intents, err := parseChain(chain)
	if err != nil {
		return nil, err
	}

	var baked BakedLUT
	if err := json.Unmarshal(data, &baked); err != nil {
		return nil, errLutAttach("malformed persisted LUT: " + err.Error())
	}

	inChannels := profiles[0].ColorSpace.NumComponents()
	outChannels := profiles[len(profiles)-1].ColorSpace.NumComponents()
	if baked.InputChannels != inChannels || baked.OutputChannels != outChannels {
		return nil, errLutAttach("persisted LUT channel counts do not match the given chain")
	}
	if len(baked.CLUT) == 0 {
		return nil, errLutAttach("persisted LUT carries no CLUT payload")
	}

	inView, err := newProfileView(profiles[0])
	if err != nil {
		return nil, err
	}
	outView, err := newProfileView(profiles[len(profiles)-1])
	if err != nil {
		return nil, err
	}

	var stages []*Stage
	inStages, cur, err := inputDecodingStages(cfg, inView)
	if err != nil {
		return nil, err
	}
	stages = append(stages, inStages...)

	method := cfg.lutInterpolation3D
	if inChannels >= 4 {
		method = cfg.lutInterpolation4D
	}
	ref := baked.clutRef(method, cfg.interpolationFast)
	stages = append(stages, clutStage("interp_cached", cur, EncDevice, ref))
	cur = EncDevice

	outStages, err := outputEncodingStages(cfg, outView, cur)
	if err != nil {
		return nil, err
	}
	stages = append(stages, outStages...)

	if err := checkEncodings(stages); err != nil {
		return nil, err
	}

	t := &Transform{
		cfg:         cfg,
		profiles:    profiles,
		intents:     intents,
		rawStages:   stages,
		stages:      stages,
		inChannels:  inChannels,
		outChannels: outChannels,
		baked:       &baked,
	}
	return t, nil
}

func (t *Transform) ensureBaked() {
	if t.baked == nil {
		t.baked = Bake(t.cfg, t.ChainInfo(), t.stages, t.inChannels, t.outChannels)
	}
}

// ChainInfo summarises the profile/intent chain this Transform was built
// from, naming each profile by its PCS, e.g.
// "PCSXYZ --[Relative Colorimetric]--> PCSLab".
func (t *Transform) ChainInfo() string {
	var b strings.Builder
	for i, p := range t.profiles {
		b.WriteString(p.PCSName())
		if i < len(t.intents) {
			b.WriteString(" --[")
			b.WriteString(t.intents[i].String())
			b.WriteString("]--> ")
		}
	}
	return b.String()
}

// StageNames lists the optimised stage list's names, in execution order.
func (t *Transform) StageNames() []string {
	names := make([]string, len(t.stages))
	for i, s := range t.stages {
		names[i] = s.Name
	}
	return names
}

// DebugInfo returns the per-stage input/output history recorded by the
// most recent [Transform.Forward] call, when [WithPipelineDebug] is set.
func (t *Transform) DebugInfo() []StepInfo {
	return t.lastHistory
}

// OptimiseInfo reports how many stages the peephole optimiser removed:
// (raw stage count, optimised stage count).
func (t *Transform) OptimiseInfo() (raw, optimised int) {
	return len(t.rawStages), len(t.stages)
}
