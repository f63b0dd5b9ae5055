package ldb

import (
	"github.com/casperdag/casperd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CSDB")
