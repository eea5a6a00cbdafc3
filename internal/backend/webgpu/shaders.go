//go:build windows

// Copyright 2025 The CINN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu implements a GPU backend using WGSL compute shaders.
// Element-wise primitives, clip, and the triangular solve kernel run on
// the device; structural operations fall back to the CPU implementation.
package webgpu

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// binaryShader generates an element-wise shader for the given infix
// expression over a[idx] and b[idx].
const binaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = EXPR;
    }
}
`

// clipShader limits every element to [params.lo, params.hi].
const clipShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    lo: f32,
    hi: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = min(max(x[idx], params.lo), params.hi);
    }
}
`

// negShader negates every element.
const negShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = -x[idx];
    }
}
`

// triangularSolveShader runs one substitution per thread: thread t owns
// right-hand-side column t of batch t / k. Operands must arrive with
// equal batch dimensions (the normalizer pass guarantees this for
// compiled programs).
//
// flags bit 0: upper, bit 1: transpose_a, bit 2: unit_diagonal.
const triangularSolveShader = `
@group(0) @binding(0) var<storage, read> mat: array<f32>;
@group(0) @binding(1) var<storage, read> rhs: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    batch: u32,
    m: u32,
    k: u32,
    flags: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

fn mat_at(base: u32, i: u32, j: u32) -> f32 {
    if ((params.flags & 2u) != 0u) {
        return mat[base + j * params.m + i];
    }
    return mat[base + i * params.m + j];
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let t = global_id.x;
    if (t >= params.batch * params.k) {
        return;
    }
    let b = t / params.k;
    let col = t % params.k;
    let aBase = b * params.m * params.m;
    let xBase = b * params.m * params.k;

    let upper = (params.flags & 1u) != 0u;
    let transposed = (params.flags & 2u) != 0u;
    let unitDiag = (params.flags & 4u) != 0u;
    let backward = upper != transposed;

    for (var step: u32 = 0u; step < params.m; step++) {
        var i: u32 = step;
        if (backward) {
            i = params.m - 1u - step;
        }
        var acc: f32 = rhs[xBase + i * params.k + col];
        if (backward) {
            for (var j: u32 = i + 1u; j < params.m; j++) {
                acc -= mat_at(aBase, i, j) * result[xBase + j * params.k + col];
            }
        } else {
            for (var j: u32 = 0u; j < i; j++) {
                acc -= mat_at(aBase, i, j) * result[xBase + j * params.k + col];
            }
        }
        if (!unitDiag) {
            acc = acc / mat_at(aBase, i, i);
        }
        result[xBase + i * params.k + col] = acc;
    }
}
`
