package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kmgreen/reliasim/internal/aggregate"
	"github.com/kmgreen/reliasim/internal/config"
	"github.com/kmgreen/reliasim/internal/orchestrator"
	"github.com/kmgreen/reliasim/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a reliability simulation and report PDL/NOMDL/BR",
	RunE:  runSimulation,
}

// flag variables, named after spec.md §6's literal single-letter CLI
// surface (-i total_iterations, -p num_processes, ...).
var (
	fTotalIterations int
	fNumProcesses    int
	fMissionTime     float64
	fRSeedPlus       int64
	fNumRacks        int
	fNodesPerRack    int
	fDisksPerNode    int
	fCapacityPerDisk float64
	fChunkSize       float64
	fNumStripes      int
	fCodeType        string
	fCodeN           int
	fCodeK           int
	fCodeL           int
	fCodeFree        int
	fPlaceType       string
	fChunkRackConfig string
	fUseNetwork      bool
	fNetworkSetting  string
	fUsePowerOutage  bool
	fUseTrace        bool
	fTraceID         int
	fSimType         string
	fFBProb          float64
	fBeta            float64
)

func init() {
	fl := runCmd.Flags()
	fl.IntVarP(&fTotalIterations, "total-iterations", "i", 0, "total Monte-Carlo iterations (unset = use config default)")
	fl.IntVarP(&fNumProcesses, "num-processes", "p", 0, "number of parallel shards (unset = use config default)")
	fl.Float64VarP(&fMissionTime, "mission-time", "m", 0, "mission time in hours (unset = use config default)")
	fl.Int64VarP(&fRSeedPlus, "rseed-plus", "u", 0, "base RNG seed (shard index is added per shard)")
	fl.IntVarP(&fNumRacks, "num-racks", "R", 0, "number of racks")
	fl.IntVarP(&fNodesPerRack, "nodes-per-rack", "N", 0, "nodes per rack")
	fl.IntVarP(&fDisksPerNode, "disks-per-node", "D", 0, "disks per node")
	fl.Float64VarP(&fCapacityPerDisk, "capacity-per-disk", "C", 0, "capacity per disk, MiB")
	fl.Float64VarP(&fChunkSize, "chunk-size", "K", 0, "chunk size, MiB")
	fl.IntVarP(&fNumStripes, "num-stripes", "S", 0, "number of stripes")
	fl.StringVarP(&fCodeType, "code-type", "t", "", "erasure code type: rs, lrc, or drc")
	fl.IntVarP(&fCodeN, "code-n", "n", 0, "code n (stripe width)")
	fl.IntVarP(&fCodeK, "code-k", "k", 0, "code k (data chunks)")
	fl.IntVarP(&fCodeL, "code-l", "l", 0, "code l (LRC local groups)")
	fl.IntVarP(&fCodeFree, "code-free", "E", -1, "code_free (accepted, preserved as a no-op)")
	fl.StringVarP(&fPlaceType, "place-type", "T", "", "placement policy: flat or hie")
	fl.StringVarP(&fChunkRackConfig, "chunk-rack-config", "g", "", "comma-separated per-rack chunk counts, e.g. 3,3,3")
	fl.BoolVarP(&fUseNetwork, "use-network", "W", false, "enable the repair-bandwidth contention model")
	fl.StringVarP(&fNetworkSetting, "network-setting", "s", "", "cross_rack_BW,intra_rack_BW in MB/s")
	fl.BoolVarP(&fUsePowerOutage, "use-power-outage", "O", false, "enable the shared rack power-outage process")
	fl.BoolVarP(&fUseTrace, "use-trace", "F", false, "drive node events from a trace instead of distributions")
	fl.IntVarP(&fTraceID, "trace-id", "d", 0, "trace id to load when --use-trace is set")
	fl.StringVarP(&fSimType, "sim-type", "A", "", "simulator: regular or unifbfb")
	fl.Float64VarP(&fFBProb, "fb-prob", "f", -1, "UnifBFB failure-bias probability")
	fl.Float64VarP(&fBeta, "beta", "b", -1, "UnifBFB beta (repair propensity rate)")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := telemetry.LevelInfo
	if verbose {
		level = telemetry.LevelDebug
	}
	log := telemetry.New(telemetry.Config{Level: level, Format: telemetry.FormatText, Output: os.Stderr})

	printConfigSummary(cfg)

	start := time.Now()
	result, err := orchestrator.Run(cfg, log)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	report := aggregate.BuildReport(result.Observations, cfg.Placement.NumStripes, cfg.Code.N)
	printReport(report, result, elapsed)
	return nil
}

// applyFlagOverrides layers any explicitly-set flags on top of the
// loaded/default config. A flag given on the command line overrides even
// when its value is zero; flags not given leave the config file or
// defaults standing, matching
// original_source/simedc.py's getopt()-over-defaults behavior.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()

	if fl.Changed("total-iterations") {
		cfg.Run.TotalIterations = fTotalIterations
	}
	if fl.Changed("num-processes") {
		cfg.Run.NumProcesses = fNumProcesses
	}
	if fl.Changed("mission-time") {
		cfg.Run.MissionTime = fMissionTime
	}
	if fl.Changed("rseed-plus") {
		cfg.Run.RSeedPlus = fRSeedPlus
	}
	if fl.Changed("num-racks") {
		cfg.Topology.NumRacks = fNumRacks
	}
	if fl.Changed("nodes-per-rack") {
		cfg.Topology.NodesPerRack = fNodesPerRack
	}
	if fl.Changed("disks-per-node") {
		cfg.Topology.DisksPerNode = fDisksPerNode
	}
	if fl.Changed("capacity-per-disk") {
		cfg.Topology.CapacityPerDisk = fCapacityPerDisk
	}
	if fl.Changed("chunk-size") {
		cfg.Placement.ChunkSize = fChunkSize
	}
	if fl.Changed("num-stripes") {
		cfg.Placement.NumStripes = fNumStripes
	}
	if fl.Changed("code-type") {
		cfg.Code.Type = config.CodeType(fCodeType)
	}
	if fl.Changed("code-n") {
		cfg.Code.N = fCodeN
	}
	if fl.Changed("code-k") {
		cfg.Code.K = fCodeK
	}
	if fl.Changed("code-l") {
		cfg.Code.L = fCodeL
	}
	if fl.Changed("code-free") {
		cfg.Code.Free = fCodeFree
	}
	if fl.Changed("place-type") {
		cfg.Placement.Type = config.PlaceType(fPlaceType)
	}
	if fl.Changed("chunk-rack-config") {
		parsed, err := parseIntList(fChunkRackConfig)
		if err != nil {
			return err
		}
		cfg.Placement.ChunkRackConfig = parsed
	}
	if fl.Changed("use-network") {
		cfg.Network.Enabled = fUseNetwork
	}
	if fl.Changed("network-setting") {
		cross, intra, err := parseNetworkSetting(fNetworkSetting)
		if err != nil {
			return err
		}
		cfg.Network.CrossRackBandwidth = cross
		cfg.Network.IntraRackBandwidth = intra
	}
	if fl.Changed("use-power-outage") {
		cfg.PowerOutage.Enabled = fUsePowerOutage
	}
	if fl.Changed("use-trace") {
		cfg.Trace.Enabled = fUseTrace
	}
	if fl.Changed("trace-id") {
		cfg.Trace.ID = fTraceID
	}
	if fl.Changed("sim-type") {
		cfg.Run.SimType = config.SimType(fSimType)
	}
	if fl.Changed("fb-prob") {
		cfg.IS.FailureBiasProb = fFBProb
	}
	if fl.Changed("beta") {
		cfg.IS.Beta = fBeta
	}
	return nil
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid chunk_rack_config entry %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseNetworkSetting(s string) (cross, intra float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("network_setting must be two comma-separated floats, got %q", s)
	}
	cross, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cross_rack_BW %q: %w", parts[0], err)
	}
	intra, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid intra_rack_BW %q: %w", parts[1], err)
	}
	return cross, intra, nil
}

func printConfigSummary(cfg *config.Config) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Parameter", "Value"})
	table.Append([]string{"sim_type", string(cfg.Run.SimType)})
	table.Append([]string{"total_iterations", strconv.Itoa(cfg.Run.TotalIterations)})
	table.Append([]string{"num_processes", strconv.Itoa(cfg.Run.NumProcesses)})
	table.Append([]string{"mission_time (h)", strconv.FormatFloat(cfg.Run.MissionTime, 'f', -1, 64)})
	table.Append([]string{"topology", fmt.Sprintf("%d racks x %d nodes x %d disks", cfg.Topology.NumRacks, cfg.Topology.NodesPerRack, cfg.Topology.DisksPerNode)})
	table.Append([]string{"code", fmt.Sprintf("%s(n=%d,k=%d,l=%d,free=%d)", cfg.Code.Type, cfg.Code.N, cfg.Code.K, cfg.Code.L, cfg.Code.Free)})
	table.Append([]string{"placement", fmt.Sprintf("%s, %d stripes, %.0f MiB chunks", cfg.Placement.Type, cfg.Placement.NumStripes, cfg.Placement.ChunkSize)})
	table.Append([]string{"network", strconv.FormatBool(cfg.Network.Enabled)})
	table.Append([]string{"power_outage", strconv.FormatBool(cfg.PowerOutage.Enabled)})
	table.Append([]string{"trace", strconv.FormatBool(cfg.Trace.Enabled)})
	table.Render()
}

// printReport prints the literal output block spec.md §6 names:
// num_zeroes, PDL, RE%, NOMDL, BR, single-chunk repair ratio.
func printReport(r aggregate.Report, res orchestrator.Result, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("*************** Result ***************")
	fmt.Printf("run_id = %s\n", res.RunID)
	fmt.Printf("num_zeroes = %d\n", r.PDL.NumZeroes)
	fmt.Printf("PDL = %e\n", r.PDL.Mean)
	fmt.Printf("RE = %.1f%%\n", r.PDL.RelativeError)
	fmt.Printf("NOMDL = %e\n", r.NOMDL)
	fmt.Printf("BR = %e\n", r.BlockedRatio)
	fmt.Printf("Single-chunk repair ratio = %.6f\n", r.SingleChunkRepairRatio)
	fmt.Printf("iterations: %d succeeded, %d failed (elapsed %s)\n", res.Succeeded, res.Failed, elapsed.Round(time.Millisecond))
	fmt.Println("***************************************")
}
