/*
Package session coordinates concurrent access to persisted machine runs. A
Manager serializes operations per session ID with reference-counted
in-process locks and, optionally, a distributed locker for multi-instance
deployments sharing one store.
*/
package session
