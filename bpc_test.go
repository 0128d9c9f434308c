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
	"math"
	"testing"
)

// synthCMYKLutProfile builds a minimal CMYK profile with a single A2B LUT
// (shared by every intent, since a2bTag/b2aTag fall back to AToB0/BToA0
// when the intent-specific tag is absent) whose CLUT reports the fraction
// of each of C/M/Y directly as PCSXYZ-domain output, ignoring K. This
// makes the ink-limited device vector (0,0,0,1) and the max-colourant
// device vector (1,1,1,1) land on two easily distinguished CLUT corners.
func synthCMYKLutProfile(version Version) *Profile {
	lut := &LutAToB{
		inputChannels:  4,
		outputChannels: 3,
		gridPoints:     []int{2, 2, 2, 2},
	}
	lut.clut = make([]float64, 2*2*2*2*3)
	for c := 0; c < 2; c++ {
		for m := 0; m < 2; m++ {
			for y := 0; y < 2; y++ {
				for k := 0; k < 2; k++ {
					idx := (((c*2+m)*2+y)*2 + k) * 3
					lut.clut[idx+0] = float64(c)
					lut.clut[idx+1] = float64(m)
					lut.clut[idx+2] = float64(y)
				}
			}
		}
	}
	data, err := lut.Encode()
	if err != nil {
		panic(err)
	}

	return &Profile{
		Version:         version,
		Class:           OutputDeviceProfile,
		ColorSpace:      CMYKSpace,
		PCS:             PCSXYZSpace,
		RenderingIntent: RelativeColorimetric,
		TagData: map[TagType][]byte{
			AToB0:           data,
			MediaWhitePoint: buildXYZTag(d50Illuminant),
		},
	}
}

func TestBlackPointXYZAbsoluteIntentIsZero(t *testing.T) {
	p := synthCMYKLutProfile(Version2_1_0)
	v, err := newProfileView(p)
	if err != nil {
		t.Fatalf("newProfileView: %v", err)
	}
	xyz, err := blackPointXYZ(testCfg(), v, AbsoluteColorimetric)
	if err != nil {
		t.Fatalf("blackPointXYZ: %v", err)
	}
	if xyz != ([3]float64{0, 0, 0}) {
		t.Errorf("blackPointXYZ(absolute) = %v, want (0,0,0)", xyz)
	}
}

func TestBlackPointXYZRGBMatrixIsZero(t *testing.T) {
	p := synthRGBMatrixProfile(Version4_2_0)
	v, err := newProfileView(p)
	if err != nil {
		t.Fatalf("newProfileView: %v", err)
	}
	xyz, err := blackPointXYZ(testCfg(), v, RelativeColorimetric)
	if err != nil {
		t.Fatalf("blackPointXYZ: %v", err)
	}
	if xyz != ([3]float64{0, 0, 0}) {
		t.Errorf("blackPointXYZ(RGB matrix) = %v, want (0,0,0)", xyz)
	}
}

// TestBlackPointXYZCMYKInkLimitedOnlyUnderRelativeColorimetric is the
// regression test for the CMYK intent-gating fix: a v2 CMYK profile under
// relative colorimetric intent takes the ink-limited round trip (zero
// C/M/Y, full K), landing on the all-zero CLUT corner; the same profile
// under perceptual intent (which, being v2, does not hit the v4
// fixed-black branch) falls through to the generic max-colourant round
// trip instead, landing on the all-one corner.
func TestBlackPointXYZCMYKInkLimitedOnlyUnderRelativeColorimetric(t *testing.T) {
	p := synthCMYKLutProfile(Version2_1_0)
	v, err := newProfileView(p)
	if err != nil {
		t.Fatalf("newProfileView: %v", err)
	}

	relative, err := blackPointXYZ(testCfg(), v, RelativeColorimetric)
	if err != nil {
		t.Fatalf("blackPointXYZ(relative): %v", err)
	}
	perceptual, err := blackPointXYZ(testCfg(), v, Perceptual)
	if err != nil {
		t.Fatalf("blackPointXYZ(perceptual): %v", err)
	}

	// the ink-limited corner (0,0,0,1) reports CLUT output (0,0,0) in
	// PCSXYZ-scaled units, i.e. xyzToPCSXYZ(0,0,0) == (0,0,0).
	if math.Abs(relative[0]) > 1e-9 || math.Abs(relative[1]) > 1e-9 || math.Abs(relative[2]) > 1e-9 {
		t.Errorf("blackPointXYZ(relative) = %v, want the ink-limited (0,0,0) corner", relative)
	}

	// the max-colourant round trip feeds the all-one corner (1,1,1,1),
	// reporting CLUT output (1,1,1), then clamps L* to [0,50] and maps
	// back through XYZ -- so it must differ from the ink-limited result.
	if relative == perceptual {
		t.Errorf("blackPointXYZ(perceptual) == blackPointXYZ(relative) = %v, want the two intents to diverge", relative)
	}
}

// TestBPCEnabledForDefaultDoesNotForceEveryHop is the regression test for
// the bpcEnabledFor narrowing: a v2 CMYK hop under relative colorimetric
// intent meets neither of spec §4.2's auto-enable conditions (it is
// neither a v4 profile under perceptual/saturation, nor a Gray profile
// with kTRC but no A2B), so it must get no BPC stage even though
// cfg.bpc defaults to true.
func TestBPCEnabledForDefaultDoesNotForceEveryHop(t *testing.T) {
	in := synthCMYKLutProfile(Version2_1_0)
	out := synthCMYKLutProfile(Version2_1_0)
	vIn, err := newProfileView(in)
	if err != nil {
		t.Fatalf("newProfileView(in): %v", err)
	}
	vOut, err := newProfileView(out)
	if err != nil {
		t.Fatalf("newProfileView(out): %v", err)
	}

	cfg := testCfg()
	if !cfg.bpc {
		t.Fatalf("cfg.bpc = false, want true (default)")
	}
	if bpcEnabledFor(cfg, vIn, vOut, RelativeColorimetric, 0) {
		t.Errorf("bpcEnabledFor(v2 CMYK hop, relative) = true, want false (neither auto-enable condition holds)")
	}

	// a v4 hop under perceptual intent still auto-enables.
	in4 := synthCMYKLutProfile(Version4_2_0)
	vIn4, err := newProfileView(in4)
	if err != nil {
		t.Fatalf("newProfileView(in4): %v", err)
	}
	if !bpcEnabledFor(cfg, vIn4, vOut, Perceptual, 0) {
		t.Errorf("bpcEnabledFor(v4 hop, perceptual) = false, want true")
	}

	// an explicit per-hop override still forces the decision either way.
	cfg2 := testCfg()
	cfg2.bpcPerHop = []bool{true}
	if !bpcEnabledFor(cfg2, vIn, vOut, RelativeColorimetric, 0) {
		t.Errorf("bpcEnabledFor with explicit bpcPerHop[0]=true = false, want true")
	}
}

func TestComputeBPCIdentityWhenBlackPointsMatch(t *testing.T) {
	a := synthRGBMatrixProfile(Version4_2_0)
	b := synthRGBMatrixProfile(Version4_2_0)
	va, err := newProfileView(a)
	if err != nil {
		t.Fatalf("newProfileView: %v", err)
	}
	vb, err := newProfileView(b)
	if err != nil {
		t.Fatalf("newProfileView: %v", err)
	}
	p, err := computeBPC(testCfg(), va, vb, RelativeColorimetric)
	if err != nil {
		t.Fatalf("computeBPC: %v", err)
	}
	if p != nil {
		t.Errorf("computeBPC(identical RGB matrix profiles) = %+v, want nil (identity)", p)
	}
}
