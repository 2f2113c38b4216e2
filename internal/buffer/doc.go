// Package buffer holds captured events until they are synced.
//
// The Buffer is an explicitly constructed, ordered, append-only queue. It is
// safe for concurrent use: Record, Drain and Requeue each hold the lock only
// for the duration of the slice operation, never across a pipeline fit or a
// backend transmission.
//
// Every recorded event is wrapped in a schema.Record envelope carrying a
// unique key and a logical sequence number. Keys let backends recognize a
// resubmitted event; sequence numbers give a total insertion order that
// survives a drain/requeue round trip.
package buffer
