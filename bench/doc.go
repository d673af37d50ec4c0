// Package bench measures batched against single-register access and cross-checks the data.
//
// A Verifier drives an Access (usually *client.Client) through cycles of explicit phases:
//
//	generate -> batched-write -> sequential-write -> batched-read -> sequential-read -> verify -> record
//
// With Config.SequentialFirst, the default of the contiguous variant, each sequential pass runs
// before its batched counterpart. A settle delay precedes every transfer pass but the first.
//
// The batched passes visit the register groups in Config.Order, one transfer per group. The
// sequential passes transfer one register per call over the same registers in address order.
// Verification compares the batched read of group k at offset j with the sequential read of
// the same register and reports every difference as a Mismatch. A failed transfer degrades the
// cycle to an integrity failure; it never aborts it.
//
// Results are delivered to a Sink. CSVSink writes the run file; MultiSink fans out.
package bench
