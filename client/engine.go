package client

import (
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
	"github.com/arloliu/go-slmp/slmpnet"
)

// NetworkEngine returns the SLMP 3E binary engine over TCP/UDP. Frame exchanges are logged
// at debug level to the package default logger.
func NetworkEngine() slmp.Engine {
	return slmpnet.Dialer{}
}

// NetworkEngineWithLogger is NetworkEngine with frame exchanges logged to l.
func NetworkEngineWithLogger(l logger.Logger) slmp.Engine {
	return slmpnet.Dialer{Logger: l}
}
