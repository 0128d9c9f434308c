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

import "gonum.org/v1/gonum/mat"

// mat3 is a row-major 3x3 matrix, used for RGB-matrix stages and the
// Bradford chromatic adaptation transform.
type mat3 [9]float64

func (m mat3) dense() *mat.Dense {
	return mat.NewDense(3, 3, m[:])
}

func mat3FromDense(d *mat.Dense) mat3 {
	var m mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*3+j] = d.At(i, j)
		}
	}
	return m
}

// mulMat3 computes a*b (a applied after b, i.e. (a*b)x == a(b(x))).
func mulMat3(a, b mat3) mat3 {
	var out mat.Dense
	out.Mul(a.dense(), b.dense())
	return mat3FromDense(&out)
}

// invertMat3 returns the inverse of m, or false if m is singular.
func invertMat3(m mat3) (mat3, bool) {
	var inv mat.Dense
	err := inv.Inverse(m.dense())
	if err != nil {
		return mat3{}, false
	}
	return mat3FromDense(&inv), true
}

// apply multiplies the matrix by a column vector.
func (m mat3) apply(v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func identityMat3() mat3 {
	return mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func (m mat3) isIdentity(eps float64) bool {
	id := identityMat3()
	for i := range m {
		if absf(m[i]-id[i]) > eps {
			return false
		}
	}
	return true
}

// mat34 is a 3x4 affine matrix: a 3x3 linear part plus a translation column,
// matching the ICC mAB/mBA "Matrix" element (3x3 coefficients + 3 offsets).
type mat34 struct {
	Linear mat3
	Offset [3]float64
}

func (m mat34) apply(v [3]float64) [3]float64 {
	lin := m.Linear.apply(v)
	return [3]float64{lin[0] + m.Offset[0], lin[1] + m.Offset[1], lin[2] + m.Offset[2]}
}

// mulMat34 composes two affine transforms: result(x) == a(b(x)).
func mulMat34(a, b mat34) mat34 {
	lin := mulMat3(a.Linear, b.Linear)
	off := a.Linear.apply(b.Offset)
	return mat34{
		Linear: lin,
		Offset: [3]float64{off[0] + a.Offset[0], off[1] + a.Offset[1], off[2] + a.Offset[2]},
	}
}

// diagMat3 builds a diagonal 3x3 matrix from a per-channel scale triple,
// used for the absolute-intent media-white/PCS-illuminant adaptation.
func diagMat3(s [3]float64) mat3 {
	return mat3{
		s[0], 0, 0,
		0, s[1], 0,
		0, 0, s[2],
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
