package host

import (
	"github.com/libp2p/go-libp2p/core/network"
)

// Event names used for broker communication.
var (
	AfterPeerConnectEvent    = "peer:after:connect"
	AfterPeerDisconnectEvent = "peer:after:disconnect"
)

type AfterPeerConnectCallback func(net network.Network, conn network.Conn)
type AfterPeerDisconnectCallback func(net network.Network, conn network.Conn)

// AfterPeerConnect subscribes to the after peer connect event.
func (n *Node) AfterPeerConnect(callback AfterPeerConnectCallback) {
	n.broker.On(AfterPeerConnectEvent, callback)
}

// AfterPeerDisconnect subscribes to the after peer disconnect event.
func (n *Node) AfterPeerDisconnect(callback AfterPeerDisconnectCallback) {
	n.broker.On(AfterPeerDisconnectEvent, callback)
}

func (n *Node) emitAfterPeerConnect(net network.Network, conn network.Conn) {
	n.broker.Emit(AfterPeerConnectEvent, net, conn)
}

func (n *Node) emitAfterPeerDisconnect(net network.Network, conn network.Conn) {
	n.broker.Emit(AfterPeerDisconnectEvent, net, conn)
}
