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


// Package vesselflow ingests vessel-tracking records from AIS CSV exports
// into a document store and recomputes the filtered per-vessel view, using
// a fixed pool of parallel workers with bounded retries.
package vesselflow

import (
	"strings"
	"time"

	"github.com/poiesic/vesselflow/storage"
	badgerstore "github.com/poiesic/vesselflow/storage/badger"
	mongostore "github.com/poiesic/vesselflow/storage/mongo"
)

// Target is an opened store destination. It hides whether records land in
// a MongoDB cluster or a local BadgerDB directory behind one Opener.
type Target struct {
	opener  storage.Opener
	cleanup func() error
}

// OpenTarget resolves a store target string. A mongodb:// or
// mongodb+srv:// URI dials the cluster; anything else is treated as a
// local BadgerDB directory, which is what tests and offline runs use.
func OpenTarget(target, database string, connectTimeout time.Duration) (*Target, error) {
	if strings.HasPrefix(target, "mongodb://") || strings.HasPrefix(target, "mongodb+srv://") {
		opener := mongostore.NewOpener(mongostore.Config{
			URI:            target,
			Database:       database,
			ConnectTimeout: connectTimeout,
		})
		return &Target{opener: opener, cleanup: func() error { return nil }}, nil
	}

	backend, err := badgerstore.OpenBackend(target, false)
	if err != nil {
		return nil, err
	}
	return &Target{
		opener:  badgerstore.NewOpener(backend),
		cleanup: backend.Close,
	}, nil
}

// Opener returns the store opener for this target.
func (t *Target) Opener() storage.Opener {
	return t.opener
}

// Close releases any shared backend resources.
func (t *Target) Close() error {
	return t.cleanup()
}
