package main

import (
	"fmt"
	"os"

	"github.com/casperdag/casperd/domain/consensus"
	"github.com/casperdag/casperd/domain/consensus/executionsimulator"
	"github.com/casperdag/casperd/infrastructure/config"
	"github.com/casperdag/casperd/infrastructure/db/database/ldb"
	"github.com/casperdag/casperd/infrastructure/logger"
	"github.com/casperdag/casperd/infrastructure/network"
	"github.com/casperdag/casperd/infrastructure/os/signal"
	"github.com/casperdag/casperd/util/panics"
	"github.com/casperdag/casperd/version"
)

func casperdMain() error {
	interrupt := signal.InterruptListener()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if cfg.ShowVersion {
		fmt.Println("casperd version", version.Version())
		return nil
	}

	err = os.MkdirAll(cfg.LogDir(), 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed creating log directory: %s\n", err)
		return err
	}
	err = logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed initializing logger: %s\n", err)
		return err
	}
	err = logger.SetLogLevels(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed setting log levels: %s\n", err)
		return err
	}
	defer panics.HandlePanic(log, "MAIN", nil)
	defer logger.BackendLog().Close()

	log.Infof("casperd version %s starting on %s", version.Version(), cfg.ActiveNetParams.Name)

	databaseContext, err := ldb.NewLevelDB(cfg.DataDir())
	if err != nil {
		log.Errorf("Failed opening the block database: %s", err)
		return err
	}
	defer func() {
		closeErr := databaseContext.Close()
		if closeErr != nil {
			log.Errorf("Failed closing the block database: %s", closeErr)
		}
	}()

	consensusInstance, err := consensus.NewFactory().NewConsensus(
		cfg.ActiveNetParams, databaseContext, executionsimulator.New(), network.NewLoopback())
	if err != nil {
		log.Errorf("Failed creating the consensus: %s", err)
		return err
	}

	snapshot, err := consensusInstance.GetSnapshot()
	if err != nil {
		log.Errorf("Failed reading the consensus state: %s", err)
		return err
	}
	log.Infof("Last finalized block: %s", snapshot.LastFinalizedBlock)

	<-interrupt
	log.Infof("casperd shutting down")
	return nil
}
