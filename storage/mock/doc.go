// Package mock provides a test double for the storage.Store interface.
//
// The mock keeps inserted records in memory and supports scripted failures:
// fail the first N bulk inserts, fail the first N opens, or inject fully
// custom behavior through function fields. Attempt timestamps are recorded
// so tests can assert on backoff delays between retries.
//
// # Usage in Tests
//
//	st := mock.NewMockStore()
//	st.FailBulkAttempts = 2 // attempts 1 and 2 fail, attempt 3 succeeds
//	opener := mock.NewOpener(st)
package mock
