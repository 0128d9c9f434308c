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

// testCfg is the Config shared by the synthetic-profile tests: RGB
// channel values are passed as normalised [0,1] device values rather
// than 8-bit "object" values, matching the inputs these tests construct.
func testCfg() *Config {
	return New(WithDataFormat(FormatObjectFloat))
}

// buildXYZTag encodes an XYZType tag payload, the wire format parseXYZTag
// reads back (12-byte header followed by one s15Fixed16 XYZ triple).
func buildXYZTag(xyz [3]float64) []byte {
	buf := make([]byte, 20)
	copy(buf[0:4], "XYZ ")
	putS15Fixed16(buf, 8, xyz[0])
	putS15Fixed16(buf, 12, xyz[1])
	putS15Fixed16(buf, 16, xyz[2])
	return buf
}

// synthRGBMatrixProfile builds a matrix/TRC RGB profile in the shape of
// sRGB (IEC 61966-2-1 primaries, D50-adapted, a gamma-2.2 TRC standing in
// for sRGB's piecewise curve), entirely from TagData, so tests don't
// depend on an embedded profile fixture.
func synthRGBMatrixProfile(version Version) *Profile {
	gamma := &Curve{Gamma: 2.2}
	trcData := gamma.Encode()

	return &Profile{
		Version:         version,
		Class:           DisplayDeviceProfile,
		ColorSpace:      RGBSpace,
		PCS:             PCSXYZSpace,
		RenderingIntent: Perceptual,
		TagData: map[TagType][]byte{
			RedMatrixColumn:   buildXYZTag([3]float64{0.4361, 0.2225, 0.0139}),
			GreenMatrixColumn: buildXYZTag([3]float64{0.3851, 0.7169, 0.0971}),
			BlueMatrixColumn:  buildXYZTag([3]float64{0.1431, 0.0606, 0.7141}),
			RedTRC:            trcData,
			GreenTRC:          trcData,
			BlueTRC:           trcData,
			MediaWhitePoint:   buildXYZTag(d50Illuminant),
		},
	}
}

// synthLabProfile builds a minimal CIELAB profile connected directly to
// the PCS, used as the destination side of a device-to-Lab conversion.
func synthLabProfile(version Version) *Profile {
	return &Profile{
		Version:         version,
		Class:           OutputDeviceProfile,
		ColorSpace:      CIELabSpace,
		PCS:             PCSLabSpace,
		RenderingIntent: Perceptual,
		TagData:         map[TagType][]byte{},
	}
}

func TestSynthRGBMatrixProfileClassification(t *testing.T) {
	for _, v := range []Version{Version2_1_0, Version4_2_0} {
		p := synthRGBMatrixProfile(v)
		view, err := newProfileView(p)
		if err != nil {
			t.Fatalf("newProfileView: %v", err)
		}
		if view.kind != pkRGBMatrix {
			t.Errorf("kind = %v, want pkRGBMatrix", view.kind)
		}
		if !view.hasMatrix {
			t.Errorf("hasMatrix = false, want true")
		}
	}
}

func TestSRGBLikeTransformWhiteAndBlack(t *testing.T) {
	for _, v := range []Version{Version2_1_0, Version4_2_0} {
		rgb := synthRGBMatrixProfile(v)
		lab := synthLabProfile(v)

		tr, err := Create(testCfg(), rgb, lab, RelativeColorimetric)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// white -> L close to 100
		out, err := tr.Forward([]float64{1, 1, 1})
		if err != nil {
			t.Fatalf("Forward(white): %v", err)
		}
		if math.Abs(out[0]-100) > 1 {
			t.Errorf("white -> L = %v, want close to 100", out[0])
		}

		// black -> L close to 0
		out, err = tr.Forward([]float64{0, 0, 0})
		if err != nil {
			t.Fatalf("Forward(black): %v", err)
		}
		if out[0] > 1 {
			t.Errorf("black -> L = %v, want close to 0", out[0])
		}

		// green should be lighter than red (higher luminance -> higher L*)
		outR, err := tr.Forward([]float64{1, 0, 0})
		if err != nil {
			t.Fatalf("Forward(red): %v", err)
		}
		outG, err := tr.Forward([]float64{0, 1, 0})
		if err != nil {
			t.Fatalf("Forward(green): %v", err)
		}
		if outG[0] <= outR[0] {
			t.Errorf("green L* (%v) <= red L* (%v)", outG[0], outR[0])
		}
	}
}

func TestSRGBLikeRGBDeviceRoundTrip(t *testing.T) {
	for _, v := range []Version{Version2_1_0, Version4_2_0} {
		a := synthRGBMatrixProfile(v)
		b := synthRGBMatrixProfile(v)

		fwd, err := Create(testCfg(), a, b, RelativeColorimetric)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		inputs := [][]float64{
			{0, 0, 0},
			{1, 1, 1},
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
			{0.5, 0.5, 0.5},
			{0.2, 0.4, 0.8},
		}

		for _, rgb := range inputs {
			out, err := fwd.Forward(rgb)
			if err != nil {
				t.Fatalf("Forward(%v): %v", rgb, err)
			}
			for i := range rgb {
				if math.Abs(out[i]-rgb[i]) > 0.02 {
					t.Errorf("identical-profile round trip %v -> %v", rgb, out)
					break
				}
			}
		}
	}
}

func TestSRGBLikeOptimiserCancelsIdentityHop(t *testing.T) {
	p := synthRGBMatrixProfile(Version4_2_0)

	tr, err := Create(testCfg(), p, p, RelativeColorimetric)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	raw, optimised := tr.OptimiseInfo()
	if optimised >= raw {
		t.Errorf("optimised stage count (%d) >= raw stage count (%d)", optimised, raw)
	}
}

func TestSRGBLikeTransformArray(t *testing.T) {
	rgb := synthRGBMatrixProfile(Version4_2_0)
	lab := synthLabProfile(Version4_2_0)

	tr, err := Create(testCfg(), rgb, lab, RelativeColorimetric)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	buf := []float64{
		0, 0, 0,
		1, 1, 1,
		0.5, 0.5, 0.5,
	}
	out, err := tr.TransformArray(buf, 3, false, false)
	if err != nil {
		t.Fatalf("TransformArray: %v", err)
	}
	if len(out) != 9 {
		t.Fatalf("len(out) = %d, want 9", len(out))
	}
	// black's L* should be the smallest of the three samples
	if out[0] >= out[3] || out[0] >= out[6] {
		t.Errorf("black L* (%v) not smallest among %v", out[0], out)
	}
}
