// Package storage provides the document-store abstraction for vesselflow.
//
// This package defines the Store capability set the pipelines depend on
// (bulk insert, single-record fallback insert, find-by-key, distinct-keys,
// index creation) and the Opener factory that makes a handle cheap to
// create per worker. It allows different backends (a sharded MongoDB
// cluster, an embedded BadgerDB directory, a scripted mock) to be used
// interchangeably.
//
// # Ownership
//
// A Store handle belongs to exactly one worker. Workers never share
// handles; the retry policy reconnects by discarding a handle and asking
// the Opener for a fresh one.
//
// # Usage
//
//	opener := mongo.NewOpener(mongo.Config{URI: uri, Database: db})
//	st, err := opener.Open(ctx)
//	if err != nil {
//	    // wraps storage.ErrConnectFailed
//	}
//	defer st.Close()
//
// Use in tests with an in-memory store:
//
//	st, err := badger.NewMemoryStore()
//
// # Context Support
//
// All operations accept a context.Context for cancellation and timeouts.
package storage
