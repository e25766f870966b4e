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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed the required-field checks.
	// Callers treat this as a filtering decision, not a failure.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMissingField indicates a required field is absent, empty,
	// or a not-a-number sentinel.
	ErrMissingField = errors.New("missing required field")

	// ErrBadTimestamp indicates a timestamp string matched none of the
	// recognized formats.
	ErrBadTimestamp = errors.New("unrecognized timestamp format")
)
