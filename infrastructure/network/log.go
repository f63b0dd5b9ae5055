package network

import (
	"github.com/casperdag/casperd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("NTWK")
