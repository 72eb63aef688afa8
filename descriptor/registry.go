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

package descriptor

import (
	"fmt"
	"sync"
)

// Registry maps a host fully-qualified type name to the Descriptor that
// describes it. Readers consult a Registry to resolve a decoded Avro
// record's full name back to the host Type Descriptor that should
// materialize it (spec.md §4.3); it is this codec's substitute for the
// host-runtime class loader a reflective implementation would use.
//
// Registry is safe for concurrent registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	byFQN   map[string]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byFQN: make(map[string]Descriptor)}
}

// Register binds fqn to d, overwriting any previous binding. Lifecycle
// (spec.md §3) assumes host type identity is stable for the process
// lifetime, so re-registering the same fqn is expected only during tests;
// descriptors generally carry slice/func fields and so cannot
// be compared for equality to detect an accidental redefinition.
func (r *Registry) Register(fqn string, d Descriptor) error {
	if fqn == "" {
		return fmt.Errorf("descriptor: cannot register an empty fully-qualified name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFQN[fqn] = d
	return nil
}

// Lookup returns the Descriptor registered for fqn, if any.
func (r *Registry) Lookup(fqn string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byFQN[fqn]
	return d, ok
}

// FQN extracts the fully-qualified host name carried by descriptors that
// have one (Record, Sum, Enum, Newtype); other descriptors have no name
// and return "".
func FQN(d Descriptor) string {
	switch t := d.(type) {
	case RecordDescriptor:
		return t.FQN
	case SumDescriptor:
		return t.FQN
	case EnumDescriptor:
		return t.FQN
	case NewtypeDescriptor:
		return t.FQN
	default:
		return ""
	}
}
