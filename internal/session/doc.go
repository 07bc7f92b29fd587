// Package session runs a block of recall trials for one participant.
//
// A Runner owns the block loop: for each trial it stamps a sequence number,
// generates the list, hands the schedule to a Presenter, collects the raw
// answer from a Responder, scores it, and emits the finished trial to every
// Sink. The loop is single-goroutine and strictly sequential; trials are
// emitted in the order they were run.
package session
