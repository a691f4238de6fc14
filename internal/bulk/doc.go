// Package bulk implements the bulk-send decision and personalization
// pipeline: strategy selection between the in-process immediate path and the
// queue fan-out path, suppression filtering against bounce history,
// per-recipient personalization, chunking, and aggregation of heterogeneous
// partial-failure results into a single job outcome.
//
// The package owns no infrastructure. Mail delivery, bounce history, and the
// queue are injected as collaborator interfaces; the adapters live in
// internal/ses, internal/bounces, and internal/queue.
package bulk
