package consensus

import (
	"github.com/casperdag/casperd/infrastructure/logger"
	"github.com/casperdag/casperd/util/panics"
)

var log = logger.RegisterSubSystem("CNSS")
var spawn = panics.GoroutineWrapperFunc(log)
