// Package recall is the client façade for the Recall memory-storage service.
//
// Records are free-text memories scoped to an identity key (user ID). The
// client exposes four flat operations: store a record, search records
// semantically, list all records for an identity, and delete records.
// Responses are typed envelopes mirroring the service wire shapes, so a
// missing field is an explicit zero value rather than a runtime map lookup.
//
// Architecture:
//   - Client: validation, defaults, and logging around a Backend
//   - Backend: transport implementation (remote HTTP API or embedded local
//     vector database, see the localdb subpackage)
//   - Embedder: text-to-vector conversion used by local backends
//
// An empty search result set is a normal outcome, not an error: the service
// makes no visibility guarantee between a store and an immediately following
// search for the same identity.
package recall
