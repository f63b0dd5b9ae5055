package config

import (
	"github.com/casperdag/casperd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is
// selected.
type NetworkFlags struct {
	Simnet bool `long:"simnet" description:"Use the simulation test network"`

	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork sets ActiveNetParams according to the selected network
// flag.
func (networkFlags *NetworkFlags) ResolveNetwork() error {
	networkFlags.ActiveNetParams = &dagconfig.MainnetParams
	if networkFlags.Simnet {
		networkFlags.ActiveNetParams = &dagconfig.SimnetParams
	}
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}
