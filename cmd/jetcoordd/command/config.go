package command

import (
	"time"

	"github.com/BurntSushi/toml"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// config is jetcoordd's on-disk configuration, loaded via BurntSushi/toml
// the way the teacher's pkg/config loads a node's static settings.
type config struct {
	LogLevel string `toml:"log_level"`

	Server struct {
		Addr        string        `toml:"addr"`
		DialTimeout time.Duration `toml:"dial_timeout"`
	} `toml:"server"`

	Cluster struct {
		QuorumSize int      `toml:"quorum_size"`
		Peers      []string `toml:"peers"`
	} `toml:"cluster"`

	Etcd struct {
		Endpoints   []string      `toml:"endpoints"`
		DialTimeout time.Duration `toml:"dial_timeout"`
	} `toml:"etcd"`

	Job struct {
		ID         int64           `toml:"id"`
		QuorumSize int             `toml:"quorum_size"`
		DAGFile    string          `toml:"dag_file"`
		Config     model.JobConfig `toml:"config"`
	} `toml:"job"`
}

func defaultConfig() config {
	var cfg config
	cfg.LogLevel = "info"
	cfg.Server.Addr = "0.0.0.0:9400"
	cfg.Server.DialTimeout = 5 * time.Second
	cfg.Cluster.QuorumSize = 1
	cfg.Etcd.DialTimeout = 5 * time.Second
	return cfg
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, derror.ErrConfigLoadFailed.Wrap(err).GenWithStackByArgs(path)
	}
	return cfg, nil
}
