package blockprocessor

import (
	"github.com/casperdag/casperd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BPRC")
