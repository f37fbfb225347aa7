/*
Package ports defines the driven-side interfaces of the repo: snapshot
persistence and distributed locking. Implementations live under
pkg/adapters; RunSnapshotStoreContract verifies any implementation against
the shared contract.
*/
package ports
