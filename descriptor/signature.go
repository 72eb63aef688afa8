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
	"strings"
)

// Signature returns a structural identity string for d, suitable as a
// memoization key (spec.md §4.5 memoizes "typeDescriptor -> X" caches by
// descriptor identity; a Descriptor here is a Go interface holding structs
// with slice/func fields, which are not map-key comparable, so the cache
// layer keys on this cheap structural hash instead — exactly the fallback
// spec.md's own design notes §9 sanctions for languages without reference
// identity on value types).
func Signature(d Descriptor) string {
	switch t := d.(type) {
	case PrimitiveDescriptor:
		return "prim:" + t.Prim.String()
	case OptionDescriptor:
		return "option<" + Signature(t.Elem) + ">"
	case ContainerDescriptor:
		return fmt.Sprintf("container:%d<%s>", t.Shape, Signature(t.Elem))
	case MapDescriptor:
		return "map<" + Signature(t.Value) + ">"
	case EnumDescriptor:
		return "enum:" + t.FQN + "[" + strings.Join(t.Symbols, ",") + "]"
	case NewtypeDescriptor:
		return "newtype:" + t.FQN + "<" + t.Inner.String() + ">"
	case FixedDescriptor:
		return fmt.Sprintf("fixed:%d:%s", t.Size, t.Logical)
	case RecordDescriptor:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + Signature(f.Type)
		}
		return "record:" + t.FQN + "{" + strings.Join(parts, ",") + "}"
	case SumDescriptor:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = fmt.Sprintf("%d=%s", v.UnionIndex, Signature(v.Type))
		}
		return "sum:" + t.FQN + "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("unknown:%T", d)
	}
}
