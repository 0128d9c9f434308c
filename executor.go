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

// StepInfo records one stage's input/output for debug inspection
// (spec §4.7's debug-history contract; populated only when
// [WithPipelineDebug] is set).
type StepInfo struct {
	Name   string
	Input  []float64
	Output []float64
}

func (s StepInfo) String() string {
	return fmt.Sprintf("%-20s %v -> %v", s.Name, s.Input, s.Output)
}

// forward runs value through stages in order, recording per-stage
// history when debug is true.
func forward(stages []*Stage, value []float64, debug bool) ([]float64, []StepInfo) {
	cur := append([]float64(nil), value...)
	var history []StepInfo
	if debug {
		history = make([]StepInfo, 0, len(stages))
	}
	for _, s := range stages {
		out := s.Eval(cur)
		if debug {
			history = append(history, StepInfo{Name: s.Name, Input: cur, Output: out})
		}
		cur = out
	}
	return cur, history
}

// transformArray runs count pixels of inChannels values each (followed
// by an optional alpha channel) through stages, writing outChannels
// values per pixel (followed by the alpha channel again, if
// preserveAlpha is set), following spec §4.7's buffer contract.
func transformArray(stages []*Stage, buf []float64, inChannels, outChannels, count int, inAlpha, preserveAlpha bool) []float64 {
	inStride := inChannels
	if inAlpha {
		inStride++
	}
	outStride := outChannels
	if preserveAlpha {
		outStride++
	}

	out := make([]float64, count*outStride)
	pixel := make([]float64, inChannels)

	for p := 0; p < count; p++ {
		inBase := p * inStride
		outBase := p * outStride
		if inBase+inStride > len(buf) {
			break
		}

		copy(pixel, buf[inBase:inBase+inChannels])
		result, _ := forward(stages, pixel, false)

		n := outChannels
		if n > len(result) {
			n = len(result)
		}
		copy(out[outBase:outBase+n], result[:n])

		if preserveAlpha {
			if inAlpha {
				out[outBase+outChannels] = buf[inBase+inChannels]
			} else {
				out[outBase+outChannels] = 1
			}
		}
	}
	return out
}

// transformArrayViaLUT is the cached-grid counterpart of
// transformArray: it looks each pixel up in a baked CLUT (via a single
// clutRef) instead of walking the full stage list.
func transformArrayViaLUT(ref *clutRef, buf []float64, inChannels, outChannels, count int, inAlpha, preserveAlpha bool) []float64 {
	inStride := inChannels
	if inAlpha {
		inStride++
	}
	outStride := outChannels
	if preserveAlpha {
		outStride++
	}

	out := make([]float64, count*outStride)
	for p := 0; p < count; p++ {
		inBase := p * inStride
		outBase := p * outStride
		if inBase+inStride > len(buf) {
			break
		}
		result := ref.interpolate(buf[inBase : inBase+inChannels])

		n := outChannels
		if n > len(result) {
			n = len(result)
		}
		copy(out[outBase:outBase+n], result[:n])

		if preserveAlpha {
			if inAlpha {
				out[outBase+outChannels] = buf[inBase+inChannels]
			} else {
				out[outBase+outChannels] = 1
			}
		}
	}
	return out
}
