package discovery

import (
	"net"
	"strconv"

	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
)

// EnodeFromMultiaddr builds an unsigned discovery node from a
// /ip_/.../udp/.../p2p/<id> multiaddress by recovering the secp256k1
// public key embedded in the identity component.
func EnodeFromMultiaddr(addr ma.Multiaddr) (*enode.Node, error) {
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split peer identity from multiaddress")
	}

	pubKey, err := info.ID.ExtractPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract public key from peer ID")
	}

	secpKey, ok := pubKey.(*crypto.Secp256k1PublicKey)
	if !ok {
		return nil, errors.Errorf("peer %s is not identified by a secp256k1 key", info.ID)
	}

	raw, err := secpKey.Raw()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get raw public key")
	}

	ecdsaKey, err := gcrypto.DecompressPubkey(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress public key")
	}

	var (
		ip      net.IP
		udpPort int
	)

	for _, a := range info.Addrs {
		portStr, portErr := a.ValueForProtocol(ma.P_UDP)
		if portErr != nil {
			continue
		}

		port, convErr := strconv.Atoi(portStr)
		if convErr != nil {
			continue
		}

		if v4, v4Err := a.ValueForProtocol(ma.P_IP4); v4Err == nil {
			ip = net.ParseIP(v4)
		} else if v6, v6Err := a.ValueForProtocol(ma.P_IP6); v6Err == nil {
			ip = net.ParseIP(v6)
		}

		udpPort = port

		break
	}

	if ip == nil || udpPort == 0 {
		return nil, errors.New("multiaddress has no usable udp endpoint")
	}

	return enode.NewV4(ecdsaKey, ip, 0, udpPort), nil
}
