package command

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.etcd.io/etcd/clientv3"

	jetclock "github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/cluster"
	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/jobstore"
	jetlog "github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start a jetcoord coordinator node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg config) error {
	if _, _, err := log.InitLogger(&log.Config{Level: cfg.LogLevel}); err != nil {
		return err
	}
	jetlog.SetLogger(log.L())

	membership := cluster.NewStaticService(cfg.Server.Addr)
	for _, peer := range cfg.Cluster.Peers {
		membership.AddMember(peer)
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	transport := cluster.NewGRPCTransport(cfg.Server.DialTimeout, invokeParticipant)
	invoker := cluster.NewInvoker(transport)
	clk := jetclock.New()

	reg := newRegistry(store, membership, invoker, clk)
	defer reg.Close()

	if cfg.Job.DAGFile != "" {
		if err := submitConfiguredJob(reg, cfg); err != nil {
			return err
		}
	}

	jetlog.L().Info("jetcoordd started", jetlog.String("addr", cfg.Server.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	jetlog.L().Info("jetcoordd shutting down")
	return nil
}

func submitConfiguredJob(reg *registry, cfg config) error {
	dagBytes, err := os.ReadFile(cfg.Job.DAGFile)
	if err != nil {
		return derror.ErrDagDeserializeFailed.Wrap(err).GenWithStackByArgs(cfg.Job.DAGFile)
	}
	quorumSize := cfg.Job.QuorumSize
	if quorumSize == 0 {
		quorumSize = cfg.Cluster.QuorumSize
	}
	reg.Submit(model.JobID(cfg.Job.ID), dagBytes, cfg.Job.Config, quorumSize)
	return nil
}

func newStore(cfg config) (jobstore.Store, error) {
	if len(cfg.Etcd.Endpoints) == 0 {
		return jobstore.NewInMemoryStore(), nil
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Etcd.Endpoints,
		DialTimeout: cfg.Etcd.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return jobstore.NewEtcdStore(cli), nil
}
