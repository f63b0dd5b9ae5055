package executionsimulator

import (
	"strings"

	"github.com/casperdag/casperd/domain/consensus/model/externalapi"
	"github.com/casperdag/casperd/domain/consensus/utils/consensushashing"
	"github.com/casperdag/casperd/domain/consensus/utils/hashes"
)

// The simulator interprets a deploy's term as whitespace-separated tokens:
//
//	!name   writes the channel called name
//	?name   reads the channel called name
//	fail    makes the deploy error (cost is still charged)
//
// Any other token only contributes to cost. Channel names are hashed into
// channel fingerprints, so consensus code never sees the names themselves.

const (
	writeTokenPrefix = "!"
	readTokenPrefix  = "?"
	failToken        = "fail"

	deployBaseCost = 10
	costPerToken   = 10
)

type deployEffects struct {
	id            externalapi.DomainDeployID
	readChannels  []*externalapi.DomainHash
	writeChannels []*externalapi.DomainHash
	cost          uint64
	errored       bool
}

func deriveEffects(deploy *externalapi.DomainDeploy) *deployEffects {
	effects := &deployEffects{
		id:   *consensushashing.DeployID(deploy),
		cost: deployBaseCost,
	}
	for _, token := range strings.Fields(string(deploy.Term)) {
		effects.cost += costPerToken
		switch {
		case token == failToken:
			effects.errored = true
		case strings.HasPrefix(token, writeTokenPrefix):
			effects.writeChannels = append(effects.writeChannels,
				channelHash(strings.TrimPrefix(token, writeTokenPrefix)))
		case strings.HasPrefix(token, readTokenPrefix):
			effects.readChannels = append(effects.readChannels,
				channelHash(strings.TrimPrefix(token, readTokenPrefix)))
		}
	}
	return effects
}

// overlaps reports whether the two deploys touch a common channel in a way
// that makes their order observable.
func (de *deployEffects) overlaps(other *deployEffects) bool {
	return channelsIntersect(de.writeChannels, other.writeChannels) ||
		channelsIntersect(de.writeChannels, other.readChannels) ||
		channelsIntersect(de.readChannels, other.writeChannels)
}

func channelsIntersect(a, b []*externalapi.DomainHash) bool {
	for _, channelA := range a {
		for _, channelB := range b {
			if channelA.Equal(channelB) {
				return true
			}
		}
	}
	return false
}

func channelHash(name string) *externalapi.DomainHash {
	writer := hashes.NewChannelHashWriter()
	writer.InfallibleWrite([]byte(name))
	return writer.Finalize()
}
