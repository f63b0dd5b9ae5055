package signal

import (
	"github.com/casperdag/casperd/infrastructure/logger"
	"github.com/casperdag/casperd/util/panics"
)

var log = logger.RegisterSubSystem("SIGN")
var spawn = panics.GoroutineWrapperFunc(log)
