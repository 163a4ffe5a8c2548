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

package log

import "context"

type handlerKeyTy struct{}
type filterKeyTy struct{}
type tagKeyTy struct{}
type valuesKeyTy struct{}

var (
	handlerKey handlerKeyTy
	filterKey  filterKeyTy
	tagKey     tagKeyTy
	valuesKey  valuesKeyTy
)

// PutHandler returns a new context with the Handler set to h.
func PutHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey, h)
}

// GetHandler returns the Handler stored in ctx, or nil.
func GetHandler(ctx context.Context) Handler {
	h, _ := ctx.Value(handlerKey).(Handler)
	return h
}

// PutFilter returns a new context that only shows messages at or above s.
func PutFilter(ctx context.Context, s Severity) context.Context {
	return context.WithValue(ctx, filterKey, s)
}

// GetFilter returns the minimum shown severity stored in ctx.
func GetFilter(ctx context.Context) Severity {
	s, ok := ctx.Value(filterKey).(Severity)
	if !ok {
		return Debug
	}
	return s
}

// PutTag returns a new context with the message source tag set to tag.
func PutTag(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, tagKey, tag)
}

// GetTag returns the message source tag stored in ctx.
func GetTag(ctx context.Context) string {
	t, _ := ctx.Value(tagKey).(string)
	return t
}

// V is a map of named values to bind to a logging context.
type V map[string]interface{}

// Bind returns a new context with the values in v attached to it.
func (v V) Bind(ctx context.Context) context.Context {
	values := getValues(ctx)
	out := make([]Value, 0, len(values)+len(v))
	out = append(out, values...)
	for n, val := range v {
		out = append(out, Value{Name: n, Value: val})
	}
	return context.WithValue(ctx, valuesKey, out)
}

func getValues(ctx context.Context) []Value {
	v, _ := ctx.Value(valuesKey).([]Value)
	return v
}
