// Package config holds the simulator's configuration record: topology,
// code, placement, network, trace, and simulation-type parameters
// (spec.md §6 CLI surface and validation gates). It follows the
// teacher's pkg/config/config.go pattern: a struct-of-structs with yaml
// tags, a DefaultConfig constructor, an os.ExpandEnv-then-unmarshal
// Load, a Save, and a Validate gathering every invariant the original
// checked ad hoc across flag parsing and generate_placement.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kmgreen/reliasim/internal/errs"
)

// SimType selects the simulation kernel (spec.md §4.4/§4.6).
type SimType string

const (
	SimRegular SimType = "regular"
	SimUnifBFB SimType = "unifbfb"
)

// CodeType mirrors placement.CodeType as the YAML-facing string form.
type CodeType string

const (
	CodeRS  CodeType = "rs"
	CodeLRC CodeType = "lrc"
	CodeDRC CodeType = "drc"
)

// PlaceType mirrors placement.PlaceType as the YAML-facing string form.
type PlaceType string

const (
	PlaceFlat         PlaceType = "flat"
	PlaceHierarchical PlaceType = "hie"
)

// TopologyConfig is the physical cluster shape (spec.md §6 -R/-N/-D/-C).
type TopologyConfig struct {
	NumRacks        int     `yaml:"num_racks"`
	NodesPerRack    int     `yaml:"nodes_per_rack"`
	DisksPerNode    int     `yaml:"disks_per_node"`
	CapacityPerDisk float64 `yaml:"capacity_per_disk_mib"`
}

// CodeConfig is the erasure-code shape (spec.md §6 -t/-n/-k/-l/-E).
type CodeConfig struct {
	Type CodeType `yaml:"type"`
	N    int      `yaml:"n"`
	K    int      `yaml:"k"`
	L    int      `yaml:"l"`
	Free int      `yaml:"free"`
}

// PlacementConfig is the placement policy (spec.md §6 -S/-K/-T/-g).
type PlacementConfig struct {
	NumStripes      int       `yaml:"num_stripes"`
	ChunkSize       float64   `yaml:"chunk_size_mib"`
	Type            PlaceType `yaml:"type"`
	ChunkRackConfig []int     `yaml:"chunk_rack_config,omitempty"`
}

// NetworkConfig is the repair-bandwidth model toggle (spec.md §6 -W/-s).
type NetworkConfig struct {
	Enabled            bool    `yaml:"enabled"`
	CrossRackBandwidth float64 `yaml:"cross_rack_bandwidth_mbps"`
	IntraRackBandwidth float64 `yaml:"intra_rack_bandwidth_mbps"`
}

// PowerOutageConfig toggles the single process-wide outage process
// (spec.md §3 Rack).
type PowerOutageConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Duration float64 `yaml:"duration_hours"`
}

// TraceConfig toggles trace-driven event streams (spec.md §6 -F/-d).
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	ID      int    `yaml:"id"`
	Dir     string `yaml:"dir"`
}

// ImportanceSamplingConfig parameterizes the UnifBFB simulator
// (spec.md §6 -f/-b).
type ImportanceSamplingConfig struct {
	FailureBiasProb float64 `yaml:"fb_prob"`
	Beta            float64 `yaml:"beta"`
}

// RunConfig is the orchestration/seeding configuration (spec.md §6
// -i/-p/-m/-u/-A).
type RunConfig struct {
	TotalIterations int     `yaml:"total_iterations"`
	NumProcesses    int     `yaml:"num_processes"`
	MissionTime     float64 `yaml:"mission_time_hours"`
	RSeedPlus       int64   `yaml:"rseed_plus"`
	SimType         SimType `yaml:"sim_type"`
}

// Config is the full simulator configuration.
type Config struct {
	Run         RunConfig                `yaml:"run"`
	Topology    TopologyConfig           `yaml:"topology"`
	Code        CodeConfig               `yaml:"code"`
	Placement   PlacementConfig          `yaml:"placement"`
	Network     NetworkConfig            `yaml:"network"`
	PowerOutage PowerOutageConfig        `yaml:"power_outage"`
	Trace       TraceConfig              `yaml:"trace"`
	IS          ImportanceSamplingConfig `yaml:"importance_sampling"`
}

// DefaultConfig reproduces original_source/simedc.py's get_parms()
// defaults verbatim.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			TotalIterations: 4,
			NumProcesses:    4,
			MissionTime:     87600, // 10 years in hours
			RSeedPlus:       10,
			SimType:         SimUnifBFB,
		},
		Topology: TopologyConfig{
			NumRacks:        32,
			NodesPerRack:    32,
			DisksPerNode:    1,
			CapacityPerDisk: 1 << 20, // 2^20 MiB = 1 TiB
		},
		Code: CodeConfig{
			Type: CodeRS,
			N:    9,
			K:    6,
			L:    2,
			Free: 0,
		},
		Placement: PlacementConfig{
			NumStripes: 349524,
			ChunkSize:  256, // MiB
			Type:       PlaceFlat,
		},
		Network: NetworkConfig{
			Enabled:            true,
			CrossRackBandwidth: 125, // 125 MB/s = 1 Gb/s
			IntraRackBandwidth: 125,
		},
		PowerOutage: PowerOutageConfig{
			Enabled: false,
		},
		Trace: TraceConfig{
			Enabled: false,
			ID:      9,
			Dir:     "./traces",
		},
		IS: ImportanceSamplingConfig{
			FailureBiasProb: 0.5,
			Beta:            0.61,
		},
	}
}

// Load reads a YAML config file over DefaultConfig, expanding
// environment variables first (teacher's pkg/config.Load pattern). A
// missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapConfigError("reading config file", err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, errs.WrapConfigError("parsing config file", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errs.WrapConfigError("marshalling config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.WrapConfigError("writing config file", err)
	}
	return nil
}

// Validate checks every gate spec.md §6 requires before a simulation
// may start.
func (c *Config) Validate() error {
	if c.Code.N <= c.Code.K || c.Code.K < 1 {
		return errs.NewConfigError("code_n must be greater than code_k >= 1")
	}
	if c.Code.Free < 0 || c.Code.Free >= c.Code.N {
		return errs.NewConfigError("code_free must satisfy 0 <= free < n")
	}
	if c.Code.Type == CodeLRC && c.Code.L <= 0 {
		return errs.NewConfigError("code_l must be > 0 when code_type is lrc")
	}
	if c.Code.Type == CodeDRC && !(c.Code.N == 9 && (c.Code.K == 5 || c.Code.K == 6)) {
		return errs.NewConfigError("drc only supports (n=9, k in {5,6})")
	}

	totalDisks := c.Topology.NumRacks * c.Topology.NodesPerRack * c.Topology.DisksPerNode
	totalCapacity := c.Topology.CapacityPerDisk * float64(totalDisks)
	required := float64(c.Code.N) * float64(c.Placement.NumStripes) * c.Placement.ChunkSize
	if totalCapacity < required {
		return errs.NewConfigError("capacity_per_disk * num_disks must be >= code_n * num_stripes * chunk_size")
	}

	if c.Network.Enabled && c.Network.CrossRackBandwidth > c.Network.IntraRackBandwidth {
		return errs.NewConfigError("cross_rack_bandwidth must be <= intra_rack_bandwidth")
	}

	if c.Placement.ChunkRackConfig != nil {
		sum := 0
		for _, v := range c.Placement.ChunkRackConfig {
			sum += v
		}
		if sum != c.Code.N {
			return errs.NewConfigError("chunk_rack_config must sum to code_n")
		}
	}

	if c.Run.NumProcesses <= 0 || c.Run.TotalIterations%c.Run.NumProcesses != 0 {
		return errs.NewConfigError("total_iterations must be a positive multiple of num_processes")
	}

	if c.Run.SimType != SimRegular && c.Run.SimType != SimUnifBFB {
		return errs.NewConfigError(fmt.Sprintf("unknown sim_type %q", c.Run.SimType))
	}

	return nil
}
