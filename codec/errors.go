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

// Package codec holds the error taxonomy shared by inference, extract,
// read and project (spec.md §7): configuration errors detected once at
// schema inference versus the plain wrapped errors encoding/decoding
// returns. Errors are never reported by panicking — every fallible
// operation returns error (the one recover, in read's Set coercion, only
// turns an unhashable element into a plain-slice result), and the codec
// never logs, retries or
// swallows one; the one documented exception is the soft resolution
// failure for an unknown logicalType, which is a successful value, not an
// error (spec.md §7.4).
package codec

import "fmt"

// ConfigErrorCode distinguishes the configuration-error cases spec.md §7.1
// enumerates.
type ConfigErrorCode int

const (
	// ErrUnsupportedDescriptor: the descriptor has no case in schema
	// inference or extraction.
	ErrUnsupportedDescriptor ConfigErrorCode = iota
	// ErrMissingFixedSize: a Fixed annotation on a string/bytes field
	// omitted the required size.
	ErrMissingFixedSize
	// ErrDuplicateUnionIndex: two Sum variants claim the same unionIndex.
	ErrDuplicateUnionIndex
	// ErrInvalidUnionIndex: a Sum variant carries a negative unionIndex.
	ErrInvalidUnionIndex
	// ErrArityMismatch: a RecordDescriptor's field count disagrees with
	// the record schema's field count.
	ErrArityMismatch
	// ErrFieldTypeMismatch: a RecordDescriptor field's descriptor is
	// incompatible with the schema's declared field type.
	ErrFieldTypeMismatch
)

// ConfigError is a configuration error: a type is misdescribed, detected
// once at first use and fatal for that type (spec.md §7.1). It mirrors the
// stable-code-plus-message shape of confluent-kafka-go's rest.Error so
// callers can distinguish "this type is misdescribed" from an encode or
// decode failure, which are plain wrapped errors instead.
type ConfigError struct {
	Code    ConfigErrorCode
	Subject string // the FQN or field name the error concerns
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("avro codec: configuration error for %s: %s", e.Subject, e.Message)
}

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(code ConfigErrorCode, subject, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
