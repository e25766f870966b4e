// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// Validate checks a Record against the required-field rules.
//
// A field passes when it is present, non-null, non-empty, and not a
// not-a-number sentinel. Numeric required fields (Latitude, Longitude)
// were coerced at parse time, so a nil pointer already covers the empty,
// "nan", and unparseable cases.
//
// NOT validated (optional telemetry):
//   - ROT, SOG, COG, Heading (nil is a legal explicit null)
//   - Extra columns
//
// A non-nil return means "skip this record", not "the pipeline failed".
func Validate(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if !usableString(record.MMSI) {
		return fieldError(KeyField)
	}
	if record.Latitude == nil {
		return fieldError("Latitude")
	}
	if record.Longitude == nil {
		return fieldError("Longitude")
	}
	if !usableString(record.NavStatus) {
		return fieldError(NavStatusField)
	}

	return nil
}

func fieldError(name string) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidRecord, ErrMissingField, name)
}

// usableString reports whether a string field holds an actual value rather
// than an empty cell or a NaN sentinel.
func usableString(s string) bool {
	return s != "" && !strings.EqualFold(s, "nan")
}
