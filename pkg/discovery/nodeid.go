package discovery

import (
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
)

// PeerIDToNodeID converts an overlay peer identity into the discovery
// layer's node ID: keccak-256 over the raw 64-byte public key. Defined
// only for secp256k1-keyed identities with an extractable key.
func PeerIDToNodeID(pid peer.ID) (enode.ID, error) {
	pubKey, err := pid.ExtractPublicKey()
	if err != nil {
		return enode.ID{}, errors.Wrap(err, "failed to extract public key from peer ID")
	}

	secpKey, ok := pubKey.(*crypto.Secp256k1PublicKey)
	if !ok {
		return enode.ID{}, errors.Errorf("peer %s is not identified by a secp256k1 key", pid)
	}

	raw, err := secpKey.Raw()
	if err != nil {
		return enode.ID{}, errors.Wrap(err, "failed to get raw public key")
	}

	ecdsaKey, err := gcrypto.DecompressPubkey(raw)
	if err != nil {
		return enode.ID{}, errors.Wrap(err, "failed to decompress public key")
	}

	return enode.PubkeyToIDV4(ecdsaKey), nil
}
