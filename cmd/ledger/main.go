package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/manelneto/ledger/config"
	"github.com/manelneto/ledger/identity"
	pb "github.com/manelneto/ledger/kademliapb"
	"github.com/manelneto/ledger/ledger"
	"github.com/manelneto/ledger/logger"
	"github.com/manelneto/ledger/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

var (
	flagIP       string
	flagRESTPort uint32
	flagDataDir  string
	flagKeysDir  string
	flagLogLevel string
	flagLogFile  string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "ledger <self_port> <bootstrap_port>",
	Short: "Run a peer of the auction ledger network",
	Long: `Run a peer of the auction ledger network.

When self_port equals bootstrap_port the peer runs as the bootstrap
node and performs no initial join. Otherwise it joins the network
through the bootstrap peer, presenting a proof-of-work.`,
	Args:          cobra.ExactArgs(2),
	RunE:          runNode,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var shutdownCmd = &cobra.Command{
	Use:           "shutdown <port>...",
	Short:         "Send an authenticated shutdown to local peers",
	Args:          cobra.MinimumNArgs(1),
	RunE:          runShutdown,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagIP, "ip", "127.0.0.1", "IP address the node listens on")
	rootCmd.Flags().Uint32Var(&flagRESTPort, "rest-port", 0, "Port for the client REST server (default: self_port + 1000)")
	rootCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Directory for the persisted chain snapshot (empty: ephemeral)")
	rootCmd.Flags().StringVar(&flagKeysDir, "keys-dir", "keys", "Directory holding the node key files")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Log file (empty: stderr)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Optional config file overriding protocol parameters")
	rootCmd.AddCommand(shutdownCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch {
		case errors.Is(err, service.ErrorCannotBindAddress):
			os.Exit(2)
		case errors.Is(err, service.ErrorCannotJoinNetwork):
			os.Exit(3)
		default:
			os.Exit(1)
		}
	}
}

func runNode(cmd *cobra.Command, args []string) error {
	selfPort, err := parsePort(args[0])
	if err != nil {
		return err
	}
	bootstrapPort, err := parsePort(args[1])
	if err != nil {
		return err
	}

	netConfig, err := loadNetworkConfiguration()
	if err != nil {
		return err
	}

	if err := logger.InitLogger(flagLogFile, flagLogLevel); err != nil {
		return fmt.Errorf("cannot initialize logger: %w", err)
	}

	nodeIdentity, err := identity.LoadOrCreateIdentity(flagKeysDir, flagIP, selfPort)
	if err != nil {
		return fmt.Errorf("cannot load node identity: %w", err)
	}

	var snapshots *ledger.SnapshotStore
	if flagDataDir != "" {
		snapshots, err = ledger.OpenSnapshotStore(filepath.Join(flagDataDir, "chain"))
		if err != nil {
			return fmt.Errorf("cannot open chain snapshot store: %w", err)
		}
		defer snapshots.Close()
	}

	restPort := flagRESTPort
	if restPort == 0 {
		restPort = selfPort + 1000
	}

	nodeContext, err := service.CreateNodeContext(
		netConfig,
		nodeIdentity,
		flagIP,
		selfPort,
		&config.RESTServerConfiguration{RESTPort: restPort},
		snapshots,
		logger.Logger,
	)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		logger.Logger.Info("Signal received, stopping")
		nodeContext.Stop()
	}()

	isBootstrap := selfPort == bootstrapPort
	logger.Logger.Info("Starting node",
		zap.String("nodeID", nodeIdentity.ID.String()),
		zap.Uint32("port", selfPort),
		zap.Bool("bootstrap", isBootstrap))
	return nodeContext.StartNodeContext(isBootstrap, fmt.Sprintf("%s:%d", flagIP, bootstrapPort))
}

// loadNetworkConfiguration starts from the protocol defaults and
// applies overrides from the optional config file and LEDGER_*
// environment variables. The difficulty override exists for tests;
// a full proof-of-work per joining node makes multi-node test runs
// slow.
func loadNetworkConfiguration() (*config.Configuration, error) {
	netConfig := config.DefaultConfiguration()

	viper.SetEnvPrefix("ledger")
	viper.AutomaticEnv()
	viper.SetDefault("difficulty", netConfig.Difficulty)
	viper.SetDefault("replication", netConfig.ReplicationFactor)
	viper.SetDefault("concurrency", netConfig.ConcurrencyFactor)

	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	netConfig.Difficulty = viper.GetInt("difficulty")
	netConfig.ReplicationFactor = viper.GetInt("replication")
	netConfig.ConcurrencyFactor = viper.GetInt("concurrency")
	if netConfig.ReplicationFactor <= 0 || netConfig.ConcurrencyFactor <= 0 {
		return nil, errors.New("replication and concurrency must be positive")
	}
	return netConfig, nil
}

func runShutdown(cmd *cobra.Command, args []string) error {
	var lastErr error
	for _, portArg := range args {
		port, err := parsePort(portArg)
		if err != nil {
			return err
		}
		address := fmt.Sprintf("127.0.0.1:%d", port)
		if err := sendShutdown(address); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown %s: %v\n", address, err)
			lastErr = err
			continue
		}
		fmt.Printf("shutdown %s: ok\n", address)
	}
	return lastErr
}

func sendShutdown(address string) error {
	conn, err := grpc.Dial(address, grpc.WithInsecure())
	if err != nil {
		return err
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = pb.NewKademliaProtocolClient(conn).Shutdown(ctx, &pb.ShutdownRequest{})
	return err
}

func parsePort(raw string) (uint32, error) {
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	return uint32(port), nil
}
