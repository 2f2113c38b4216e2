// Package syncer flushes buffered events to a tracking backend.
//
// Sync drains the buffer, transmits the batch with bounded retries, and
// stamps the backend-issued ids onto copies of the events. If the batch
// cannot be delivered it is put back at the head of the buffer, so the next
// Sync retries it before anything recorded in the meantime.
//
// Backends deduplicate by event key. A batch that was stored but whose
// acknowledgement was lost is resubmitted with the same keys and receives
// the same ids, which makes retries safe.
package syncer
