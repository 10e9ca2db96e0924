package discovery

import (
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"

	"github.com/ethpandaops/inspector/pkg/enr"
)

// ConnectablePeer couples a peer's overlay identity and address list
// with the discovery record it was derived from. Record is nil when
// the peer was built from a plain multiaddress.
type ConnectablePeer struct {
	AddrInfo peer.AddrInfo
	Record   *enr.Record
}

// FromRecord derives a peer descriptor from a discovery record: the
// secp256k1 key becomes the overlay identity, and every (ip, transport)
// combination advertised by the record becomes one address.
func FromRecord(record *enr.Record) (*ConnectablePeer, error) {
	node := record.Node()
	if node == nil {
		return nil, errors.New("record has no parsed node")
	}

	ecdsaPubKey := node.Pubkey()
	if ecdsaPubKey == nil {
		return nil, errors.New("public key is nil")
	}

	secpKey, err := crypto.UnmarshalSecp256k1PublicKey(gcrypto.CompressPubkey(ecdsaPubKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal secp256k1 public key")
	}

	peerID, err := peer.IDFromPublicKey(secpKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get peer ID from public key")
	}

	maddrs, err := record.Multiaddrs()
	if err != nil {
		return nil, err
	}

	return &ConnectablePeer{
		AddrInfo: peer.AddrInfo{
			ID:    peerID,
			Addrs: maddrs,
		},
		Record: record,
	}, nil
}

// FromNode is FromRecord for an already-parsed discovery node.
func FromNode(node *enode.Node) (*ConnectablePeer, error) {
	if node == nil {
		return nil, errors.New("node is nil")
	}

	return FromRecord(enr.FromNode(node, ""))
}

// FromMultiaddr splits a composite /.../p2p/<id> address into its
// transport prefix and embedded identity.
func FromMultiaddr(addr ma.Multiaddr) (*ConnectablePeer, error) {
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split peer identity from multiaddress")
	}

	return &ConnectablePeer{AddrInfo: *info}, nil
}

// HasTCP reports whether any address advertises a TCP transport, i.e.
// the peer is dialable on the overlay.
func (p *ConnectablePeer) HasTCP() bool {
	return p.hasTransport(ma.P_TCP)
}

// HasUDP reports whether any address advertises a UDP transport.
func (p *ConnectablePeer) HasUDP() bool {
	return p.hasTransport(ma.P_UDP)
}

func (p *ConnectablePeer) hasTransport(code int) bool {
	for _, addr := range p.AddrInfo.Addrs {
		if _, err := addr.ValueForProtocol(code); err == nil {
			return true
		}
	}

	return false
}
