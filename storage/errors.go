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


package storage

import "errors"

var (
	// ErrConnectFailed indicates the store was unreachable within the
	// connect timeout. Fatal for a pipeline run when it happens at startup.
	ErrConnectFailed = errors.New("store connection failed")

	// ErrWriteFailed indicates a bulk or single insert failed. Recoverable:
	// the retry policy owns it.
	ErrWriteFailed = errors.New("store write failed")

	// ErrStoreClosed indicates an operation on a closed store handle.
	ErrStoreClosed = errors.New("store is closed")

	// ErrSerializationFailed indicates a document could not be encoded or
	// decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
