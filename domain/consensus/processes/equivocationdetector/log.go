package equivocationdetector

import (
	"github.com/casperdag/casperd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("EQDT")
