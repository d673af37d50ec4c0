// Package client provides a thread-safe, batched register client for SLMP controllers.
//
// Key Features:
//   - Address validation: every address is checked against the register grammar of package
//     device before the session is touched.
//   - Session lifecycle: Open constructs and connects a session, tearing down any previous one;
//     Close is best-effort and never fails.
//   - Batched access: Read/Write transfer a contiguous run of registers in one engine call;
//     ReadOne/WriteOne are the scalar forms.
//   - Serialized access: one mutex covers the session handle for the full duration of every
//     lifecycle call and every transfer.
//   - Metrics: atomic counters suitable for prometheus CounterFunc/GaugeFunc.
//
// Usage:
//
//	cfg, err := client.NewConfig(client.WithHost("192.168.5.125"), client.WithPort(2001))
//	if err != nil {
//		return err
//	}
//	c, err := client.New(client.NetworkEngine(), cfg)
//	if err != nil {
//		return err
//	}
//	if err := c.Open(); err != nil {
//		return err
//	}
//	defer c.Close()
//
//	values, err := c.Read("D1", 100)
//
// Error Handling:
// Errors wrap one of ErrInvalidAddress, ErrInvalidCount, ErrSizeMismatch, ErrSessionOpen,
// ErrBatchRead or ErrBatchWrite and can be matched with errors.Is.
package client
