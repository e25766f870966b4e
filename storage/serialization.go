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

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/poiesic/vesselflow/core"
)

// Both backends speak BSON: the MongoDB facade hands records to the driver,
// and the embedded Badger store persists the same byte form. One codec,
// identical documents either way.

// MarshalRecord serializes a Record to BSON bytes.
func MarshalRecord(record *core.Record) ([]byte, error) {
	data, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a Record from BSON bytes. Unrecognized
// document fields are collected into Extra.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	record := &core.Record{}
	if err := bson.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return record, nil
}
