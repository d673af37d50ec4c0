// Package slmp defines the contract between the register client and an SLMP protocol engine,
// and provides the 3E binary frame codec used by the network engine in package slmpnet.
//
// Engine Contract:
//   - Engine.NewSession creates an unconnected Handle from SessionParams
//     (transport, remote host/port, local bind, station, timeout).
//   - Handle.Connect / Handle.Disconnect / Handle.Free manage the link.
//   - Handle.BatchRead / Handle.BatchWrite transfer a contiguous run of words.
//
// The client treats every non-nil error from the engine as a failure and never inspects
// finer-grained causes.
//
// Frame Format:
// Requests and responses use the 3E binary frame. Only the word-unit batch read (0401/0000) and
// batch write (1401/0000) commands are supported. Multi-byte fields are little-endian.
//
// Memory:
// Memory is a concurrent, sparse word store used by simulators and test engines.
package slmp
