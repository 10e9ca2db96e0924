// Package topics derives the canonical gossip topic names for a fork
// digest and maps operator filter codes onto topic families.
package topics

import (
	"fmt"
	"strings"

	"github.com/protolambda/zrnt/eth2/beacon/common"
)

// Topic name constants for the consensus layer gossip families.
const (
	BeaconBlockTopicName        = "beacon_block"
	BeaconAggregateAndProofName = "beacon_aggregate_and_proof"
	VoluntaryExitTopicName      = "voluntary_exit"
	ProposerSlashingTopicName   = "proposer_slashing"
	AttesterSlashingTopicName   = "attester_slashing"

	BeaconAttestationTopicPattern = "beacon_attestation_%d"

	// AttestationSubnetCount is the number of attestation subnets.
	AttestationSubnetCount = 64

	// SnappySuffix marks snappy-compressed payloads; every canonical
	// topic name carries it.
	SnappySuffix = "_snappy"
)

// Filter selects one gossip topic family.
type Filter int

const (
	Blocks Filter = iota
	Attestations
	VoluntaryExits
	ProposerSlashings
	AttesterSlashings
)

// allFilters is the canonical expansion order.
var allFilters = []Filter{Blocks, Attestations, VoluntaryExits, ProposerSlashings, AttesterSlashings}

func (f Filter) String() string {
	switch f {
	case Blocks:
		return "blocks"
	case Attestations:
		return "attestations"
	case VoluntaryExits:
		return "voluntary_exits"
	case ProposerSlashings:
		return "proposer_slashings"
	case AttesterSlashings:
		return "attester_slashings"
	default:
		return "unknown"
	}
}

// ParseFilters maps operator short codes onto filters. "*" selects
// every family, as does an empty list. Unknown codes are ignored.
// Codes are case-insensitive and duplicates collapse.
func ParseFilters(codes []string) []Filter {
	if len(codes) == 0 {
		return allFilters
	}

	selected := map[Filter]bool{}

	for _, code := range codes {
		switch strings.ToLower(strings.TrimSpace(code)) {
		case "*":
			return allFilters
		case "a":
			selected[Attestations] = true
		case "b":
			selected[Blocks] = true
		case "e":
			selected[VoluntaryExits] = true
		case "ps":
			selected[ProposerSlashings] = true
		case "as":
			selected[AttesterSlashings] = true
		}
	}

	filters := []Filter{}

	for _, f := range allFilters {
		if selected[f] {
			filters = append(filters, f)
		}
	}

	return filters
}

// name builds the canonical wire name for a topic within a fork.
func name(forkDigest common.ForkDigest, topic string) string {
	return fmt.Sprintf("/eth2/%x/%s/ssz", forkDigest[:], topic) + SnappySuffix
}

// BeaconBlockTopic returns the signed beacon block topic for a fork.
func BeaconBlockTopic(forkDigest common.ForkDigest) string {
	return name(forkDigest, BeaconBlockTopicName)
}

// AttestationTopic returns the attestation topic for a subnet.
func AttestationTopic(forkDigest common.ForkDigest, subnet uint64) string {
	return name(forkDigest, fmt.Sprintf(BeaconAttestationTopicPattern, subnet))
}

// VoluntaryExitTopic returns the voluntary exit topic for a fork.
func VoluntaryExitTopic(forkDigest common.ForkDigest) string {
	return name(forkDigest, VoluntaryExitTopicName)
}

// ProposerSlashingTopic returns the proposer slashing topic for a fork.
func ProposerSlashingTopic(forkDigest common.ForkDigest) string {
	return name(forkDigest, ProposerSlashingTopicName)
}

// AttesterSlashingTopic returns the attester slashing topic for a fork.
func AttesterSlashingTopic(forkDigest common.ForkDigest) string {
	return name(forkDigest, AttesterSlashingTopicName)
}

// AggregateAndProofTopic returns the aggregate and proof topic for a
// fork. The inspector decodes this family but does not subscribe to it
// unless the operator names it as a custom topic.
func AggregateAndProofTopic(forkDigest common.ForkDigest) string {
	return name(forkDigest, BeaconAggregateAndProofName)
}

// Names expands a filter set into the concrete topic-name list for a
// fork digest. The expansion is pure: equal inputs yield equal output.
func Names(forkDigest common.ForkDigest, filters []Filter) []string {
	names := []string{}

	for _, f := range filters {
		switch f {
		case Blocks:
			names = append(names, BeaconBlockTopic(forkDigest))
		case Attestations:
			for subnet := uint64(0); subnet < AttestationSubnetCount; subnet++ {
				names = append(names, AttestationTopic(forkDigest, subnet))
			}
		case VoluntaryExits:
			names = append(names, VoluntaryExitTopic(forkDigest))
		case ProposerSlashings:
			names = append(names, ProposerSlashingTopic(forkDigest))
		case AttesterSlashings:
			names = append(names, AttesterSlashingTopic(forkDigest))
		}
	}

	return names
}

// Family predicates used for decode dispatch. They match any fork
// digest, keyed on the topic-name tail.

func IsSnappyTopic(topic string) bool {
	return strings.HasSuffix(topic, SnappySuffix)
}

func IsBeaconBlockTopic(topic string) bool {
	return strings.Contains(topic, "/"+BeaconBlockTopicName+"/") && IsSnappyTopic(topic)
}

func IsAttestationTopic(topic string) bool {
	return strings.Contains(topic, "/beacon_attestation_") && IsSnappyTopic(topic)
}

func IsVoluntaryExitTopic(topic string) bool {
	return strings.Contains(topic, "/"+VoluntaryExitTopicName+"/") && IsSnappyTopic(topic)
}

func IsProposerSlashingTopic(topic string) bool {
	return strings.Contains(topic, "/"+ProposerSlashingTopicName+"/") && IsSnappyTopic(topic)
}

func IsAttesterSlashingTopic(topic string) bool {
	return strings.Contains(topic, "/"+AttesterSlashingTopicName+"/") && IsSnappyTopic(topic)
}

func IsAggregateAndProofTopic(topic string) bool {
	return strings.Contains(topic, "/"+BeaconAggregateAndProofName+"/") && IsSnappyTopic(topic)
}
