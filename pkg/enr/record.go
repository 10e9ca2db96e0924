// Package enr parses Ethereum Node Records and extracts the pieces the
// inspector cares about: the node identity, the advertised transport
// coordinates, and the eth2/attnets application fields.
package enr

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/p2p/enode"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/protolambda/zrnt/eth2/beacon/common"
	"github.com/protolambda/ztyp/codec"
	"github.com/prysmaticlabs/go-bitfield"
)

// attnetsLength is the canonical size of the attestation subnet
// bitvector: one bit per subnet, 64 subnets.
const attnetsLength = 8

// Record is a decoded discovery record. All fields are populated at
// parse time and never mutated afterwards. Optional fields are nil
// pointers when the record does not carry them.
type Record struct {
	// Enr is the original textual form, kept so the record can be
	// re-encoded byte for byte.
	Enr string

	Secp256k1 *[]byte
	IP4       *string
	IP6       *string
	TCP4      *uint32
	TCP6      *uint32
	UDP4      *uint32
	UDP6      *uint32
	Eth2      *[]byte
	Attnets   *[]byte

	node *enode.Node
}

// Node returns the underlying parsed node.
func (r *Record) Node() *enode.Node {
	return r.node
}

func (r *Record) String() string {
	return r.Enr
}

// Eth2Data decodes the record's "eth2" field into its fork identifier.
// Returns an error when the field is absent or not valid SSZ.
func (r *Record) Eth2Data() (*common.Eth2Data, error) {
	if r.Eth2 == nil {
		return nil, errors.New("record has no eth2 field")
	}

	data := &common.Eth2Data{}

	raw := *r.Eth2
	dr := codec.NewDecodingReader(bytes.NewReader(raw), uint64(len(raw)))

	if err := data.Deserialize(dr); err != nil {
		return nil, errors.Wrap(err, "failed to decode eth2 field")
	}

	return data, nil
}

// ForkDigest extracts the current fork digest from the eth2 field.
func (r *Record) ForkDigest() (common.ForkDigest, error) {
	data, err := r.Eth2Data()
	if err != nil {
		return common.ForkDigest{}, err
	}

	return data.ForkDigest, nil
}

// AttnetBits returns the attestation subnet bitvector. The second
// return is false when the field is absent or has a non-canonical
// length.
func (r *Record) AttnetBits() (bitfield.Bitvector64, bool) {
	if r.Attnets == nil || len(*r.Attnets) != attnetsLength {
		return nil, false
	}

	return bitfield.Bitvector64(*r.Attnets), true
}

// FieldPair is the eth2/attnets field pair carried over into the
// inspector's own published record. Two pairs are considered equal
// when their eth2 fields match; attnets is deliberately ignored.
type FieldPair struct {
	Eth2    []byte
	Attnets []byte
}

// FieldPair returns the record's eth2/attnets pair, or false when
// either field is missing.
func (r *Record) FieldPair() (*FieldPair, bool) {
	if r.Eth2 == nil || r.Attnets == nil {
		return nil, false
	}

	return &FieldPair{Eth2: *r.Eth2, Attnets: *r.Attnets}, true
}

// Equal compares two pairs by their eth2 field only.
func (p *FieldPair) Equal(other *FieldPair) bool {
	if p == nil || other == nil {
		return p == other
	}

	return bytes.Equal(p.Eth2, other.Eth2)
}

// HasTCP reports whether the record advertises any TCP coordinate.
func (r *Record) HasTCP() bool {
	return (r.IP4 != nil && r.TCP4 != nil) || (r.IP6 != nil && r.TCP6 != nil)
}

// HasUDP reports whether the record advertises any UDP coordinate.
func (r *Record) HasUDP() bool {
	return (r.IP4 != nil && r.UDP4 != nil) || (r.IP6 != nil && r.UDP6 != nil)
}

// Multiaddrs builds one composite address per (ip4|ip6) x (tcp|udp)
// combination present in the record. A record with no usable
// combination yields an empty list.
func (r *Record) Multiaddrs() ([]ma.Multiaddr, error) {
	type combo struct {
		ipProto string
		ip      *string
		trProto string
		port    *uint32
	}

	combos := []combo{
		{"ip4", r.IP4, "tcp", r.TCP4},
		{"ip4", r.IP4, "udp", r.UDP4},
		{"ip6", r.IP6, "tcp", r.TCP6},
		{"ip6", r.IP6, "udp", r.UDP6},
	}

	maddrs := []ma.Multiaddr{}

	for _, c := range combos {
		if c.ip == nil || c.port == nil {
			continue
		}

		maddrStr := fmt.Sprintf("/%s/%s/%s/%d", c.ipProto, *c.ip, c.trProto, *c.port)

		maddr, err := ma.NewMultiaddr(maddrStr)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build multiaddress %s", maddrStr)
		}

		maddrs = append(maddrs, maddr)
	}

	return maddrs, nil
}

// TCPMultiaddrs returns only the TCP combinations.
func (r *Record) TCPMultiaddrs() ([]ma.Multiaddr, error) {
	return r.filteredMultiaddrs(ma.P_TCP)
}

// UDPMultiaddrs returns only the UDP combinations.
func (r *Record) UDPMultiaddrs() ([]ma.Multiaddr, error) {
	return r.filteredMultiaddrs(ma.P_UDP)
}

func (r *Record) filteredMultiaddrs(proto int) ([]ma.Multiaddr, error) {
	all, err := r.Multiaddrs()
	if err != nil {
		return nil, err
	}

	filtered := []ma.Multiaddr{}

	for _, maddr := range all {
		if _, err := maddr.ValueForProtocol(proto); err == nil {
			filtered = append(filtered, maddr)
		}
	}

	return filtered, nil
}
