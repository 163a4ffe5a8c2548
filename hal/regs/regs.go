// Copyright (C) 2024 The Basalt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package regs describes the register file consumed by the command
// processor. Every register is a structured value with named fields and a
// pure encode function; callers never do bit arithmetic inline.
package regs

import (
	"fmt"
	"math"
)

// Register space bases, in dwords. Type-3 SET_*_REG packets take offsets
// relative to these.
const (
	ContextRegBase = 0xA000
	ShRegBase      = 0x2C00
	UConfigRegBase = 0xC000
)

// Context register offsets (relative to ContextRegBase).
const (
	RegDepthBoundsMin    = 0x008
	RegDepthBoundsMax    = 0x009
	RegScissor0TL        = 0x064 // 2 dwords per viewport: TL, BR
	RegBlendConstantsR   = 0x105 // 4 dwords: R, G, B, A
	RegStencilControl    = 0x10B
	RegStencilRefFront   = 0x10C
	RegStencilRefBack    = 0x10D
	RegViewport0XScale   = 0x10F // 6 dwords per viewport
	RegDepthControl      = 0x200
	RegRasterControl     = 0x205
	RegDiscardEnable     = 0x206
	RegLineControl       = 0x282
	RegPrimitiveRestart  = 0x2A5
	RegDepthBiasClamp    = 0x2CC // 5 dwords: clamp, front scale/offset, back scale/offset
	RegPatchControl      = 0x2D6
)

// SH register offsets (relative to ShRegBase).
const (
	RegUserDataPs      = 0x00C // 16 dwords
	RegUserDataVs      = 0x04C // 16 dwords
	RegUserDataHs      = 0x10C // 16 dwords
	RegUserDataGs      = 0x20C // 16 dwords
	RegComputeThreadX  = 0x207
	RegComputeThreadY  = 0x208
	RegComputeThreadZ  = 0x209
	RegUserDataCs      = 0x240 // 16 dwords
	UserDataSlotCount  = 16
)

// UConfig register offsets (relative to UConfigRegBase).
const (
	RegPrimitiveTopology = 0x242
	// Opaque draw inputs: the VGT derives the vertex count from
	// FilledSize / VertexStride while a draw with the opaque initiator
	// executes.
	RegStreamOutFilledSize   = 0x24B
	RegStreamOutVertexStride = 0x24C
)

// HwStage is a hardware shader stage with its own user-data register file.
type HwStage int

const (
	HwStagePs = HwStage(iota)
	HwStageVs
	HwStageHs
	HwStageGs
	HwStageCs
	HwStageCount
)

func (s HwStage) String() string {
	switch s {
	case HwStagePs:
		return "PS"
	case HwStageVs:
		return "VS"
	case HwStageHs:
		return "HS"
	case HwStageGs:
		return "GS"
	case HwStageCs:
		return "CS"
	default:
		return "?"
	}
}

// UserDataReg returns the SH register offset of the given user-data slot for
// the stage.
func UserDataReg(stage HwStage, slot int) uint16 {
	if slot < 0 || slot >= UserDataSlotCount {
		panic(fmt.Errorf("user data slot out of range (%d)", slot))
	}
	var base uint16
	switch stage {
	case HwStagePs:
		base = RegUserDataPs
	case HwStageVs:
		base = RegUserDataVs
	case HwStageHs:
		base = RegUserDataHs
	case HwStageGs:
		base = RegUserDataGs
	case HwStageCs:
		base = RegUserDataCs
	default:
		panic(fmt.Errorf("unknown hardware stage %d", stage))
	}
	return base + uint16(slot)
}

// Viewport is the per-viewport transform register group.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Encode returns the six transform dwords: x/y/z scale and offset.
func (r Viewport) Encode() [6]uint32 {
	xs := r.Width / 2
	ys := r.Height / 2
	zs := r.MaxDepth - r.MinDepth
	return [6]uint32{
		math.Float32bits(xs),
		math.Float32bits(r.X + xs),
		math.Float32bits(ys),
		math.Float32bits(r.Y + ys),
		math.Float32bits(zs),
		math.Float32bits(r.MinDepth),
	}
}

// Scissor is the per-viewport scissor rectangle register pair.
type Scissor struct {
	X, Y          int32
	Width, Height uint32
}

// Encode returns the TL and BR dwords. Coordinates are 15 bit unsigned on
// hardware; negative origins clamp to zero.
func (r Scissor) Encode() [2]uint32 {
	x, y := r.X, r.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	brx := uint32(x) + r.Width
	bry := uint32(y) + r.Height
	if brx > 0x7fff {
		brx = 0x7fff
	}
	if bry > 0x7fff {
		bry = 0x7fff
	}
	tl := uint32(x)&0x7fff | (uint32(y)&0x7fff)<<16
	br := brx | bry<<16
	return [2]uint32{tl, br}
}

// CompareOp is a depth or stencil comparison function.
type CompareOp uint32

const (
	CompareNever = CompareOp(iota)
	CompareLess
	CompareEqual
	CompareLessOrEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterOrEqual
	CompareAlways
)

// StencilOp is a stencil update operation.
type StencilOp uint32

const (
	StencilKeep = StencilOp(iota)
	StencilZero
	StencilReplace
	StencilIncClamp
	StencilDecClamp
	StencilInvert
	StencilIncWrap
	StencilDecWrap
)

// DepthControl enables and configures depth and stencil testing.
type DepthControl struct {
	DepthTest   bool
	DepthWrite  bool
	DepthFunc   CompareOp
	DepthBounds bool
	StencilTest bool
}

func (r DepthControl) Encode() uint32 {
	if r.DepthFunc > CompareAlways {
		panic(fmt.Errorf("depth func exceeds 3 bits (%d)", r.DepthFunc))
	}
	v := uint32(0)
	if r.DepthTest {
		v |= 1 << 0
	}
	if r.DepthWrite {
		v |= 1 << 1
	}
	v |= uint32(r.DepthFunc) << 4
	if r.DepthBounds {
		v |= 1 << 7
	}
	if r.StencilTest {
		v |= 1 << 8
	}
	return v
}

// StencilOpState is the operation set for one stencil face.
type StencilOpState struct {
	Fail      StencilOp
	Pass      StencilOp
	DepthFail StencilOp
	Func      CompareOp
}

// StencilControl packs the front and back face stencil operations.
type StencilControl struct {
	Front StencilOpState
	Back  StencilOpState
}

func (r StencilControl) Encode() uint32 {
	pack := func(s StencilOpState, shift uint32) uint32 {
		if s.Fail > StencilDecWrap || s.Pass > StencilDecWrap || s.DepthFail > StencilDecWrap {
			panic(fmt.Errorf("stencil op exceeds 3 bits"))
		}
		if s.Func > CompareAlways {
			panic(fmt.Errorf("stencil func exceeds 3 bits (%d)", s.Func))
		}
		return (uint32(s.Func) | uint32(s.Fail)<<4 | uint32(s.Pass)<<8 | uint32(s.DepthFail)<<12) << shift
	}
	return pack(r.Front, 0) | pack(r.Back, 16)
}

// StencilRefMask is the reference, compare mask and write mask for one
// stencil face.
type StencilRefMask struct {
	Ref         uint8
	CompareMask uint8
	WriteMask   uint8
}

func (r StencilRefMask) Encode() uint32 {
	return uint32(r.Ref) | uint32(r.CompareMask)<<8 | uint32(r.WriteMask)<<16
}

// CullMode selects which triangle faces are discarded.
type CullMode uint32

const (
	CullNone = CullMode(iota)
	CullFront
	CullBack
	CullFrontAndBack
)

// FrontFace selects the winding considered front-facing.
type FrontFace uint32

const (
	FrontFaceCCW = FrontFace(iota)
	FrontFaceCW
)

// RasterControl configures face culling and winding.
type RasterControl struct {
	Cull  CullMode
	Front FrontFace
}

func (r RasterControl) Encode() uint32 {
	if r.Cull > CullFrontAndBack {
		panic(fmt.Errorf("cull mode exceeds 2 bits (%d)", r.Cull))
	}
	v := uint32(0)
	if r.Cull == CullFront || r.Cull == CullFrontAndBack {
		v |= 1 << 0
	}
	if r.Cull == CullBack || r.Cull == CullFrontAndBack {
		v |= 1 << 1
	}
	if r.Front == FrontFaceCW {
		v |= 1 << 2
	}
	return v
}

// DepthBias is the polygon offset register group.
type DepthBias struct {
	Constant float32
	Clamp    float32
	Slope    float32
}

// Encode returns the five bias dwords: clamp, then scale and offset for the
// front and back faces. The hardware scale unit is 1/16th of a slope step.
func (r DepthBias) Encode() [5]uint32 {
	scale := math.Float32bits(r.Slope * 16)
	offset := math.Float32bits(r.Constant)
	return [5]uint32{math.Float32bits(r.Clamp), scale, offset, scale, offset}
}

// LineControl sets the line width in 12.4 fixed point.
type LineControl struct {
	Width float32
}

func (r LineControl) Encode() uint32 {
	w := uint32(r.Width*16 + 0.5)
	if w > 0xffff {
		w = 0xffff
	}
	return w
}

// PrimitiveTopology is the primitive assembly mode.
type PrimitiveTopology uint32

const (
	TopologyPointList = PrimitiveTopology(iota)
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
	TopologyTriangleFan
	TopologyPatchList
	topologyCount
)

func (t PrimitiveTopology) Encode() uint32 {
	if t >= topologyCount {
		panic(fmt.Errorf("topology exceeds range (%d)", t))
	}
	return uint32(t)
}

// IsStrip reports whether the topology consumes primitive restart indices.
func (t PrimitiveTopology) IsStrip() bool {
	return t == TopologyLineStrip || t == TopologyTriangleStrip || t == TopologyTriangleFan
}

// PatchControl sets the number of control points per tessellation patch.
type PatchControl struct {
	Points uint32
}

func (r PatchControl) Encode() uint32 {
	if r.Points == 0 || r.Points > 32 {
		panic(fmt.Errorf("patch control points out of range (%d)", r.Points))
	}
	return r.Points - 1
}

// ComputeThreads sets the workgroup dimensions for a compute pipeline.
type ComputeThreads struct {
	X, Y, Z uint32
}

func (r ComputeThreads) Encode() [3]uint32 {
	return [3]uint32{r.X, r.Y, r.Z}
}
