package topics

import (
	"strings"
	"testing"

	"github.com/protolambda/zrnt/eth2/beacon/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDigest = common.ForkDigest{0xde, 0xad, 0xbe, 0xef}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  []Filter
	}{
		{
			name:  "empty selects everything",
			codes: nil,
			want:  []Filter{Blocks, Attestations, VoluntaryExits, ProposerSlashings, AttesterSlashings},
		},
		{
			name:  "star selects everything",
			codes: []string{"*"},
			want:  []Filter{Blocks, Attestations, VoluntaryExits, ProposerSlashings, AttesterSlashings},
		},
		{
			name:  "individual codes",
			codes: []string{"a", "b"},
			want:  []Filter{Blocks, Attestations},
		},
		{
			name:  "case insensitive",
			codes: []string{"PS", "As"},
			want:  []Filter{ProposerSlashings, AttesterSlashings},
		},
		{
			name:  "unknown codes are ignored",
			codes: []string{"x", "zz", "e"},
			want:  []Filter{VoluntaryExits},
		},
		{
			name:  "only unknown codes",
			codes: []string{"x"},
			want:  []Filter{},
		},
		{
			name:  "duplicates collapse",
			codes: []string{"b", "b", "b"},
			want:  []Filter{Blocks},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilters(tt.codes))
		})
	}
}

func TestNames(t *testing.T) {
	names := Names(testDigest, []Filter{Blocks})
	require.Len(t, names, 1)
	assert.Equal(t, "/eth2/deadbeef/beacon_block/ssz_snappy", names[0])

	names = Names(testDigest, []Filter{Attestations})
	require.Len(t, names, AttestationSubnetCount)
	assert.Equal(t, "/eth2/deadbeef/beacon_attestation_0/ssz_snappy", names[0])
	assert.Equal(t, "/eth2/deadbeef/beacon_attestation_63/ssz_snappy", names[63])

	for _, n := range names {
		assert.True(t, strings.HasSuffix(n, SnappySuffix))
	}
}

// Filters a and b expand to the attestation subnets plus the block
// topic, all snappy-suffixed.
func TestNamesAttestationsAndBlocks(t *testing.T) {
	names := Names(testDigest, ParseFilters([]string{"a", "b"}))
	require.Len(t, names, AttestationSubnetCount+1)

	for _, n := range names {
		assert.True(t, strings.HasSuffix(n, SnappySuffix))
	}
}

func TestNamesArePure(t *testing.T) {
	filters := ParseFilters([]string{"*"})

	first := Names(testDigest, filters)
	second := Names(testDigest, filters)

	assert.Equal(t, first, second)
}

func TestFamilyPredicates(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		predicate func(string) bool
		want      bool
	}{
		{"beacon block", BeaconBlockTopic(testDigest), IsBeaconBlockTopic, true},
		{"attestation subnet", AttestationTopic(testDigest, 17), IsAttestationTopic, true},
		{"voluntary exit", VoluntaryExitTopic(testDigest), IsVoluntaryExitTopic, true},
		{"proposer slashing", ProposerSlashingTopic(testDigest), IsProposerSlashingTopic, true},
		{"attester slashing", AttesterSlashingTopic(testDigest), IsAttesterSlashingTopic, true},
		{"aggregate and proof", AggregateAndProofTopic(testDigest), IsAggregateAndProofTopic, true},
		{"block predicate rejects attestations", AttestationTopic(testDigest, 0), IsBeaconBlockTopic, false},
		{"non snappy name", "/eth2/deadbeef/beacon_block/ssz", IsBeaconBlockTopic, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate(tt.topic))
		})
	}
}

func TestIsSnappyTopic(t *testing.T) {
	assert.True(t, IsSnappyTopic("/eth2/00000000/beacon_block/ssz_snappy"))
	assert.False(t, IsSnappyTopic("/eth2/00000000/beacon_block/ssz"))
}
