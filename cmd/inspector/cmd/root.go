package cmd

import (
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/inspector/pkg/inspector"
)

var (
	// Flags
	verbosity  string
	fullPeerID bool
	floodSub   bool
	gossipSub  bool
	forkDigest string
	sign       bool
	topicCodes []string
	custom     []string
	bootFile   string
	bootNodes  []string
	decode     bool
	discPort   int
	ethPort    int
	bindAddr   string
	maxPeers   int
	noDisc     bool
	privKey    string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "inspector",
		Short: "Passive Ethereum consensus gossip inspector",
		Long: `Inspector joins the beacon-chain gossip overlay as a passive
listener: it dials the supplied bootstrap peers, keeps the peer
population topped up via discovery v5, subscribes to the configured
gossip topics, and logs every received message, optionally decoded
against the canonical SSZ types.

It never proposes, validates, or republishes anything.`,
		RunE:          runInspector,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&verbosity, "verbosity", "v", "trace", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&fullPeerID, "fullpeerid", "p", false, "Render full peer identities in logs")
	rootCmd.Flags().BoolVarP(&floodSub, "floodsub", "f", true, "Use FloodSub pub/sub engine")
	rootCmd.Flags().BoolVarP(&gossipSub, "gossipsub", "g", false, "Use GossipSub pub/sub engine")
	rootCmd.Flags().StringVar(&forkDigest, "forkdigest", "", "4-byte hex fork digest override")
	rootCmd.Flags().BoolVarP(&sign, "sign", "s", false, "Sign and verify pub/sub envelopes")
	rootCmd.Flags().StringArrayVarP(&topicCodes, "topics", "t", nil, "Topic filter short code (*, a, b, e, ps, as); repeatable")
	rootCmd.Flags().StringArrayVarP(&custom, "custom", "c", nil, "Verbatim topic name to subscribe; repeatable")
	rootCmd.Flags().StringVarP(&bootFile, "bootfile", "l", "", "Path to a newline-delimited bootstrap list")
	rootCmd.Flags().StringArrayVarP(&bootNodes, "bootnodes", "b", nil, "Bootstrap entry (enr: URI or multiaddress); repeatable")
	rootCmd.Flags().BoolVarP(&decode, "decode", "d", false, "Decode received messages against the canonical SSZ types")
	rootCmd.Flags().IntVar(&discPort, "discoveryPort", 9000, "UDP discovery port")
	rootCmd.Flags().IntVar(&ethPort, "ethPort", 9000, "TCP overlay port")
	rootCmd.Flags().StringVar(&bindAddr, "bindAddress", "/ip4/0.0.0.0", "Bind multiaddress")
	rootCmd.Flags().IntVar(&maxPeers, "maxPeers", 100, "Discovery target peer population")
	rootCmd.Flags().BoolVar(&noDisc, "noDiscovery", false, "Disable the discovery loop")
	rootCmd.Flags().StringVar(&privKey, "privkey", "", "Identity private key in hex (generated when empty)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runInspector(cmd *cobra.Command, args []string) error {
	logger := logrus.New()

	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	logger.SetLevel(level)

	config := inspector.DefaultConfig()
	config.FullPeerID = fullPeerID
	config.FloodSub = floodSub
	config.GossipSub = gossipSub
	config.ForkDigest = forkDigest
	config.Sign = sign
	config.TopicCodes = topicCodes
	config.CustomTopics = custom
	config.BootstrapFile = bootFile
	config.Bootnodes = bootNodes
	config.Decode = decode
	config.DiscoveryPort = discPort
	config.EthPort = ethPort
	config.BindAddress = bindAddr
	config.MaxPeers = maxPeers
	config.NoDiscovery = noDisc
	config.PrivKey = privKey

	ins, err := inspector.New(logger, config)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")

		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ins.Run(ctx); err != nil {
		logger.WithError(err).Error("Inspector failed")

		return err
	}

	return nil
}
