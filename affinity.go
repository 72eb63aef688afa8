/**
 * Copyright 2022 Confluent Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package affinity is the type-directed Avro codec's façade: the five
// entry points spec.md §4.6 names, composed from the descriptor, memo,
// inference, extract, read and project packages underneath.
package affinity

import (
	"io"
	"reflect"

	"github.com/modern-go/reflect2"

	"github.com/marwahaha/affinity/codec"
	"github.com/marwahaha/affinity/descriptor"
	"github.com/marwahaha/affinity/inference"
	"github.com/marwahaha/affinity/memo"
	"github.com/marwahaha/affinity/project"
	"github.com/marwahaha/affinity/wire"
)

// Codec is a codec instance: its own Registry and caches, sharable freely
// across goroutines per spec.md §5.
type Codec struct {
	caches *memo.Caches
}

// New returns an empty Codec with its own registry and caches.
func New() *Codec {
	return &Codec{caches: memo.NewCaches()}
}

// Registry returns the Type Descriptor registry backing this Codec, for
// callers to register host descriptors against before Write/Read/
// InferSchema can resolve them by full name.
func (c *Codec) Registry() *descriptor.Registry {
	return c.caches.Descriptors
}

// Write extracts value against schema and returns its Avro binary
// encoding.
func (c *Codec) Write(value interface{}, schema wire.Schema) ([]byte, error) {
	return project.For(schema, nil, c.caches).Write(value)
}

// WriteTo is Write, streaming to w instead of allocating a buffer.
func (c *Codec) WriteTo(value interface{}, schema wire.Schema, w io.Writer) error {
	return project.For(schema, nil, c.caches).WriteTo(value, w)
}

// Read decodes one writerSchema-encoded value from data and, when
// readerSchema is non-nil, materializes it into the host shape
// readerSchema's registered descriptor describes. A nil readerSchema
// returns the raw generic Avro form.
func (c *Codec) Read(data []byte, writerSchema, readerSchema wire.Schema) (interface{}, error) {
	return project.For(writerSchema, readerSchema, c.caches).Read(data, 0)
}

// ReadFrom is Read, pulling from an io.Reader instead of a byte slice.
func (c *Codec) ReadFrom(r io.Reader, writerSchema, readerSchema wire.Schema) (interface{}, error) {
	return project.For(writerSchema, readerSchema, c.caches).ReadFrom(r)
}

// InferSchema returns the Avro Schema for arg, which may be a
// descriptor.Descriptor directly, a full name string already registered
// in this Codec's Registry, or a host value whose concrete type has been
// registered under its own mirror full name.
func (c *Codec) InferSchema(arg interface{}) (wire.Schema, error) {
	switch t := arg.(type) {
	case descriptor.Descriptor:
		return inference.Infer(t, c.caches)
	case string:
		d, ok := c.caches.Descriptors.Lookup(t)
		if !ok {
			return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, t, "no descriptor registered under full name %q", t)
		}
		return inference.Infer(d, c.caches)
	default:
		fqn := c.mirrorFQN(arg)
		d, ok := c.caches.Descriptors.Lookup(fqn)
		if !ok {
			return nil, codec.NewConfigError(codec.ErrUnsupportedDescriptor, fqn, "no descriptor registered for host type %T", arg)
		}
		return inference.Infer(d, c.caches)
	}
}

// mirrorFQN derives and caches the full name a host value's concrete type
// is expected to be registered under, using reflect2 for a cheaper type
// identity lookup than a fresh reflect.TypeOf on every call (spec.md §9's
// allowance for an identity-keyed cache in place of thread-local state).
func (c *Codec) mirrorFQN(value interface{}) string {
	t2 := reflect2.TypeOf(value)
	key := t2.String()
	if rt, ok := c.caches.Mirrors.Get(key); ok {
		return fqnOf(rt)
	}
	rt := t2.Type1()
	c.caches.Mirrors.Put(key, rt)
	return fqnOf(rt)
}

func fqnOf(rt reflect.Type) string {
	if rt.PkgPath() == "" {
		return rt.Name()
	}
	return rt.PkgPath() + "." + rt.Name()
}
