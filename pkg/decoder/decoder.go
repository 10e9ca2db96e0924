// Package decoder turns raw gossip payloads into structured log
// events: snappy decompression under a size cap, then an SSZ decode
// chosen by topic family.
package decoder

import (
	"context"
	"encoding/hex"

	pb "github.com/OffchainLabs/prysm/v6/proto/prysm/v1alpha1"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/inspector/pkg/compression"
	"github.com/ethpandaops/inspector/pkg/topics"
)

// GossipMaxSize is the canonical cap on an uncompressed gossip
// payload, enforced during decompression.
const GossipMaxSize = 1 << 20

// Config controls the decoder's behavior.
type Config struct {
	// Decode enables the canonical SSZ decode stage. When false, only
	// the raw message event is emitted.
	Decode bool
	// FullPeerID renders complete peer identities in log fields
	// instead of the shortened form.
	FullPeerID bool
	// OnDecodeFailure, when set, is invoked once per message that
	// fails the decode stage.
	OnDecodeFailure func()
}

// Decoder decodes received gossip messages and emits one structured
// event per message. It never fails the caller: every error is logged
// and swallowed.
type Decoder struct {
	log        logrus.FieldLogger
	config     *Config
	compressor compression.Compressor
}

func New(log logrus.FieldLogger, config *Config) *Decoder {
	return &Decoder{
		log:        log.WithField("module", "decoder"),
		config:     config,
		compressor: compression.NewSnappyCompressor(GossipMaxSize),
	}
}

// HandleMessage processes one received (topic, payload) pair.
func (d *Decoder) HandleMessage(_ context.Context, topic string, data []byte, from peer.ID) {
	d.log.WithFields(logrus.Fields{
		"size":  len(data),
		"topic": topic,
		"from":  d.peerString(from),
		"data":  hex.EncodeToString(data),
	}).Info("Received pubsub message")

	if !d.config.Decode {
		return
	}

	payload := data

	if topics.IsSnappyTopic(topic) {
		decompressed, err := d.compressor.Decompress(data)
		if err != nil {
			d.log.WithError(err).WithField("topic", topic).Warn("Failed to decompress message")

			return
		}

		payload = decompressed
	}

	d.dispatch(topic, payload)
}

func (d *Decoder) dispatch(topic string, payload []byte) {
	logctx := d.log.WithField("topic", topic)

	switch {
	case topics.IsBeaconBlockTopic(topic):
		block := &pb.SignedBeaconBlock{}
		if err := block.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if block.Block != nil {
			fields["slot"] = block.Block.Slot
			fields["proposer_index"] = block.Block.ProposerIndex
			fields["parent_root"] = hex.EncodeToString(block.Block.ParentRoot)
		}

		logctx.WithFields(fields).Info("SignedBeaconBlock")

	case topics.IsAttestationTopic(topic):
		att := &pb.Attestation{}
		if err := att.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if att.Data != nil {
			fields["slot"] = att.Data.Slot
			fields["committee_index"] = att.Data.CommitteeIndex
			fields["block_root"] = hex.EncodeToString(att.Data.BeaconBlockRoot)
		}

		logctx.WithFields(fields).Info("Attestation")

	case topics.IsVoluntaryExitTopic(topic):
		exit := &pb.SignedVoluntaryExit{}
		if err := exit.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if exit.Exit != nil {
			fields["epoch"] = exit.Exit.Epoch
			fields["validator_index"] = exit.Exit.ValidatorIndex
		}

		logctx.WithFields(fields).Info("SignedVoluntaryExit")

	case topics.IsProposerSlashingTopic(topic):
		slashing := &pb.ProposerSlashing{}
		if err := slashing.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if slashing.Header_1 != nil && slashing.Header_1.Header != nil {
			fields["slot"] = slashing.Header_1.Header.Slot
			fields["proposer_index"] = slashing.Header_1.Header.ProposerIndex
		}

		logctx.WithFields(fields).Info("ProposerSlashing")

	case topics.IsAttesterSlashingTopic(topic):
		slashing := &pb.AttesterSlashing{}
		if err := slashing.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if slashing.Attestation_1 != nil && slashing.Attestation_1.Data != nil {
			fields["slot"] = slashing.Attestation_1.Data.Slot
		}

		logctx.WithFields(fields).Info("AttesterSlashing")

	case topics.IsAggregateAndProofTopic(topic):
		aggregate := &pb.SignedAggregateAttestationAndProof{}
		if err := aggregate.UnmarshalSSZ(payload); err != nil {
			d.decodeFailed(logctx, err)

			return
		}

		fields := logrus.Fields{}
		if aggregate.Message != nil {
			fields["aggregator_index"] = aggregate.Message.AggregatorIndex

			if aggregate.Message.Aggregate != nil && aggregate.Message.Aggregate.Data != nil {
				fields["slot"] = aggregate.Message.Aggregate.Data.Slot
			}
		}

		logctx.WithFields(fields).Info("AggregateAndProof")
	}
}

func (d *Decoder) decodeFailed(logctx logrus.FieldLogger, err error) {
	logctx.WithError(err).Info("Unable to decode message")

	if d.config.OnDecodeFailure != nil {
		d.config.OnDecodeFailure()
	}
}

func (d *Decoder) peerString(p peer.ID) string {
	if d.config.FullPeerID {
		return p.String()
	}

	return p.ShortString()
}
