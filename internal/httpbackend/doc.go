// Package httpbackend carries syncs over HTTP.
//
// NewHandler exposes any syncer.Backend as a JSON API:
//
//	POST /v1/sync          {"records": [...]} -> {"receipts": [...]}
//	GET  /v1/events/{key}  stamped event, when the backend can read
//	GET  /healthz
//
// Client is the matching syncer.Backend. When a shared secret is set on
// both ends, every request carries a short-lived HS256 bearer token.
package httpbackend
