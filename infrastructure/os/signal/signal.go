package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// interruptSignals defines the default signals to catch in order to do a
// proper shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ShutdownRequestChannel is used to initiate shutdown from one of the
// subsystems using the same code paths as when an interrupt signal is
// received.
var ShutdownRequestChannel = make(chan struct{})

// InterruptListener returns a channel that will be closed when an interrupt
// signal is received or a shutdown is requested through
// ShutdownRequestChannel.
func InterruptListener() <-chan struct{} {
	c := make(chan struct{})
	spawn("interruptListener", func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)
		case <-ShutdownRequestChannel:
			log.Infof("Shutdown requested. Shutting down...")
		}
		close(c)
	})
	return c
}
