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
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports an unrecognised or unsupported configuration option
// (data format, interpolation method, or LUT input-channel arity).
type ConfigError struct {
	Option string
	Value  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("icc: invalid configuration: %s = %q", e.Option, e.Value)
}

// ChainValidationError reports a malformed profile/intent chain: wrong
// length, a profile where an intent was expected (or vice versa), or a
// missing/unsupported profile at the chain's ends.
type ChainValidationError struct {
	Index  int
	Reason string
}

func (e *ChainValidationError) Error() string {
	return fmt.Sprintf("icc: invalid chain at position %d: %s", e.Index, e.Reason)
}

// InvariantViolationError reports a post-construction pipeline invariant
// failure: two adjacent stages whose encodings do not match, or a stage
// with no associated evaluation function.
type InvariantViolationError struct {
	StageIndex int
	InEncoding Encoding
	OutEncoding Encoding
	Reason      string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("icc: invariant violation at stage %d (%s -> %s): %s",
		e.StageIndex, e.InEncoding, e.OutEncoding, e.Reason)
}

// LutAttachmentError reports a problem attaching a pre-built CLUT via SetLUT:
// a chain too short to validate, a missing CLUT payload, or an unknown
// payload encoding.
type LutAttachmentError struct {
	Reason string
}

func (e *LutAttachmentError) Error() string {
	return fmt.Sprintf("icc: cannot attach LUT: %s", e.Reason)
}

// NoPipelineError is returned by Forward/TransformArray when Create has
// not yet been called on the Transform.
type NoPipelineError struct{}

func (e *NoPipelineError) Error() string {
	return "icc: Transform.Create was not called before use"
}

func errConfig(option, value string) error {
	return errors.WithStack(&ConfigError{Option: option, Value: value})
}

func errChain(index int, reason string) error {
	return errors.WithStack(&ChainValidationError{Index: index, Reason: reason})
}

func errInvariant(stageIndex int, in, out Encoding, reason string) error {
	return errors.WithStack(&InvariantViolationError{StageIndex: stageIndex, InEncoding: in, OutEncoding: out, Reason: reason})
}

func errLutAttach(reason string) error {
	return errors.WithStack(&LutAttachmentError{Reason: reason})
}

func errNoPipeline() error {
	return errors.WithStack(&NoPipelineError{})
}
