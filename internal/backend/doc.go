// Package backend implements the container-management strategies behind
// the supervisor: the compose CLI backend (preferred) and the native
// Docker Engine API backend (fallback).
//
// Both implement the Backend interface — probe, find, start, stop — so the
// supervisor commits to whichever probes first, and the Handle type makes
// teardown idempotent across racing shutdown paths. Containers created by
// the native backend carry "a0."-prefixed labels, which are the sole
// persistence mechanism for discovery and adoption.
package backend
