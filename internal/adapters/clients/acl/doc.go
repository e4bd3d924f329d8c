// Package acl is the anti-corruption layer between the remote content host
// and the domain.
//
// The host publishes the same two-collection document the service exports,
// but nothing it returns reaches the domain untranslated: the body is decoded
// through a ports.DatasetCodec and every failure is mapped to a domain error.
//
//   - 404 → [domain.ErrNotFound]
//   - 401/403 → [domain.ErrForbidden]
//   - 5xx, transport errors, [clients.ErrCircuitOpen] and
//     [clients.ErrMaxRetriesExceeded] → [domain.ErrUnavailable]
//
// The content repository wraps whatever [RemoteSource.FetchDataset] returns
// into a [domain.LoadError].
package acl
