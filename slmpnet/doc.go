// Package slmpnet provides the network SLMP engine and a simulated controller.
//
// Dialer implements slmp.Engine. Each session it creates is a *Conn that exchanges 3E binary
// frames with the controller over TCP (header-then-body framing) or UDP (one frame per datagram).
// Every exchange is bounded by the session timeout through a read/write deadline.
//
// Server answers batch read and batch write requests from a slmp.Memory. It is meant for local
// benchmarking without hardware and for end-to-end tests:
//
//	srv := slmpnet.NewServer(slmp.TCP, "127.0.0.1:0", nil, nil)
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Close()
package slmpnet
