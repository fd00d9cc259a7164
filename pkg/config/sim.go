package config

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/spf13/viper"

    "coesim/pkg/geo"
)

// Simulation holds the parameters of one run. It is read once at startup and
// treated as immutable afterwards.
type Simulation struct {
    // SimType labels the scenario; used as suffix of record files
    SimType string `mapstructure:"sim_type" yaml:"sim_type"`
    // Duration of simulated time to execute
    Duration time.Duration `mapstructure:"sim_time" yaml:"sim_time"`
    // Seed of the first replication; replication i uses Seed+i
    Seed         uint64 `mapstructure:"seed" yaml:"seed"`
    Replications int    `mapstructure:"replications" yaml:"replications"`

    GNB                geo.Position `mapstructure:"gnb" yaml:"gnb"`
    Pedestrians        int      `mapstructure:"pedestrians" yaml:"pedestrians"`
    PedestrianDistance float64  `mapstructure:"pedestrian_distance" yaml:"pedestrian_distance"`
    Vehicles           int      `mapstructure:"vehicles" yaml:"vehicles"`
    // MobilityTrace is an optional ns-2 movement file for the vehicles
    MobilityTrace string `mapstructure:"mobility_trace" yaml:"mobility_trace"`
    // CoverageRadius in metres around the gNB; 0 disables coverage checks
    CoverageRadius float64 `mapstructure:"coverage_radius" yaml:"coverage_radius"`

    PacketSize         int           `mapstructure:"packet_size" yaml:"packet_size"`
    Workload           float64       `mapstructure:"workload" yaml:"workload"`
    RequestRateMS      float64       `mapstructure:"request_rate" yaml:"request_rate"`
    RequestGapBound    time.Duration `mapstructure:"request_gap_bound" yaml:"request_gap_bound"`
    VehicleQueueLength int           `mapstructure:"vehicle_queue_length" yaml:"vehicle_queue_length"`
    EdgeQueueCapacity  int           `mapstructure:"edge_queue_capacity" yaml:"edge_queue_capacity"`

    CloudCapacity   float64 `mapstructure:"cloud_capacity" yaml:"cloud_capacity"`
    EdgeCapacity    float64 `mapstructure:"edge_capacity" yaml:"edge_capacity"`
    VehicleCapacity float64 `mapstructure:"vehicle_capacity" yaml:"vehicle_capacity"`

    Strategy string `mapstructure:"chosen_strategy" yaml:"chosen_strategy"`

    BeaconInterval    time.Duration `mapstructure:"beacon_interval" yaml:"beacon_interval"`
    FastBeaconDelay   time.Duration `mapstructure:"fast_beacon_delay" yaml:"fast_beacon_delay"`
    NeighborStaleness time.Duration `mapstructure:"neighbor_staleness" yaml:"neighbor_staleness"`
    SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
    StartJitterMin    time.Duration `mapstructure:"start_jitter_min" yaml:"start_jitter_min"`
    StartJitterMax    time.Duration `mapstructure:"start_jitter_max" yaml:"start_jitter_max"`

    // WireFormat of frame bodies: proto, cbor or json
    WireFormat string     `mapstructure:"wire_format" yaml:"wire_format"`
    Links      LinkConfig `mapstructure:"links" yaml:"links"`
}

// Strategies lists the accepted values of chosen_strategy.
var Strategies = []string{"Random", "VCCFirst", "EC_and_CC", "VCC_and_CC"}

// WireFormats lists the accepted values of wire_format.
var WireFormats = []string{"proto", "cbor", "json"}

// DefaultSimulation mirrors the reference scenario: one gNB at the origin,
// capacities in MIPS and a 1 s mean inter-request gap.
func DefaultSimulation() Simulation {
    return Simulation{
        SimType:            "FirstConf",
        Duration:           30 * time.Second,
        Seed:               1,
        Replications:       1,
        Pedestrians:        1,
        PedestrianDistance: 20,
        Vehicles:           1,
        PacketSize:         1024,
        Workload:           1028,
        RequestRateMS:      1000,
        RequestGapBound:    time.Second,
        VehicleQueueLength: 1,
        EdgeQueueCapacity:  100,
        CloudCapacity:      2356230,
        EdgeCapacity:       749070,
        VehicleCapacity:    221720,
        Strategy:           "VCCFirst",
        BeaconInterval:     100 * time.Millisecond,
        FastBeaconDelay:    5 * time.Millisecond,
        NeighborStaleness:  500 * time.Millisecond,
        SweepInterval:      100 * time.Millisecond,
        StartJitterMin:     50 * time.Microsecond,
        StartJitterMax:     200 * time.Microsecond,
        WireFormat:         "proto",
    }
}

func seedSimulationDefaults(v *viper.Viper, s Simulation) {
    v.SetDefault("sim.sim_type", s.SimType)
    v.SetDefault("sim.sim_time", s.Duration)
    v.SetDefault("sim.seed", s.Seed)
    v.SetDefault("sim.replications", s.Replications)
    v.SetDefault("sim.gnb.x", s.GNB.X)
    v.SetDefault("sim.gnb.y", s.GNB.Y)
    v.SetDefault("sim.gnb.z", s.GNB.Z)
    v.SetDefault("sim.pedestrians", s.Pedestrians)
    v.SetDefault("sim.pedestrian_distance", s.PedestrianDistance)
    v.SetDefault("sim.vehicles", s.Vehicles)
    v.SetDefault("sim.mobility_trace", s.MobilityTrace)
    v.SetDefault("sim.coverage_radius", s.CoverageRadius)
    v.SetDefault("sim.packet_size", s.PacketSize)
    v.SetDefault("sim.workload", s.Workload)
    v.SetDefault("sim.request_rate", s.RequestRateMS)
    v.SetDefault("sim.request_gap_bound", s.RequestGapBound)
    v.SetDefault("sim.vehicle_queue_length", s.VehicleQueueLength)
    v.SetDefault("sim.edge_queue_capacity", s.EdgeQueueCapacity)
    v.SetDefault("sim.cloud_capacity", s.CloudCapacity)
    v.SetDefault("sim.edge_capacity", s.EdgeCapacity)
    v.SetDefault("sim.vehicle_capacity", s.VehicleCapacity)
    v.SetDefault("sim.chosen_strategy", s.Strategy)
    v.SetDefault("sim.beacon_interval", s.BeaconInterval)
    v.SetDefault("sim.fast_beacon_delay", s.FastBeaconDelay)
    v.SetDefault("sim.neighbor_staleness", s.NeighborStaleness)
    v.SetDefault("sim.sweep_interval", s.SweepInterval)
    v.SetDefault("sim.start_jitter_min", s.StartJitterMin)
    v.SetDefault("sim.start_jitter_max", s.StartJitterMax)
    v.SetDefault("sim.wire_format", s.WireFormat)
    v.SetDefault("sim.links.radio_latency", s.Links.RadioLatency)
    v.SetDefault("sim.links.radio_mbps", s.Links.RadioMbps)
    v.SetDefault("sim.links.backbone_latency", s.Links.BackboneLatency)
    v.SetDefault("sim.links.backbone_mbps", s.Links.BackboneMbps)
    v.SetDefault("sim.links.corrupt_rate", s.Links.CorruptRate)
}

// Validate checks the scenario for values that cannot produce a run.
// Strategy and wire format names are normalized to their canonical spelling.
func (s *Simulation) Validate() error {
    var errs []error
    if s.Duration <= 0 {
        errs = append(errs, fmt.Errorf("sim_time must be positive, got %s", s.Duration))
    }
    if s.Replications < 1 {
        errs = append(errs, fmt.Errorf("replications must be >= 1, got %d", s.Replications))
    }
    if s.Pedestrians < 1 {
        errs = append(errs, fmt.Errorf("pedestrians must be >= 1, got %d", s.Pedestrians))
    }
    if s.Vehicles < 0 {
        errs = append(errs, fmt.Errorf("vehicles must be >= 0, got %d", s.Vehicles))
    }
    if s.Workload <= 0 {
        errs = append(errs, fmt.Errorf("workload must be positive, got %v", s.Workload))
    }
    if s.RequestRateMS <= 0 {
        errs = append(errs, fmt.Errorf("request_rate must be positive, got %v", s.RequestRateMS))
    }
    if s.VehicleQueueLength < 1 {
        errs = append(errs, fmt.Errorf("vehicle_queue_length must be >= 1, got %d", s.VehicleQueueLength))
    }
    if s.EdgeQueueCapacity < 1 {
        errs = append(errs, fmt.Errorf("edge_queue_capacity must be >= 1, got %d", s.EdgeQueueCapacity))
    }
    if s.CloudCapacity <= 0 || s.EdgeCapacity <= 0 || s.VehicleCapacity <= 0 {
        errs = append(errs, errors.New("cloud_capacity, edge_capacity and vehicle_capacity must be positive"))
    }
    if s.BeaconInterval <= 0 || s.SweepInterval <= 0 || s.NeighborStaleness <= 0 {
        errs = append(errs, errors.New("beacon_interval, sweep_interval and neighbor_staleness must be positive"))
    }
    if s.StartJitterMin < 0 || s.StartJitterMax < s.StartJitterMin {
        errs = append(errs, fmt.Errorf("invalid start jitter range [%s, %s]", s.StartJitterMin, s.StartJitterMax))
    }
    if s.PacketSize < 0 {
        errs = append(errs, fmt.Errorf("packet_size must be >= 0, got %d", s.PacketSize))
    }
    if s.Links.CorruptRate < 0 || s.Links.CorruptRate >= 1 {
        errs = append(errs, fmt.Errorf("links.corrupt_rate must be in [0,1), got %v", s.Links.CorruptRate))
    }
    if name, ok := canonical(s.Strategy, Strategies); ok {
        s.Strategy = name
    } else {
        errs = append(errs, fmt.Errorf("unknown chosen_strategy %q (want one of %s)", s.Strategy, strings.Join(Strategies, ", ")))
    }
    if name, ok := canonical(s.WireFormat, WireFormats); ok {
        s.WireFormat = name
    } else {
        errs = append(errs, fmt.Errorf("unknown wire_format %q", s.WireFormat))
    }
    if strings.TrimSpace(s.SimType) == "" {
        s.SimType = "FirstConf"
    }
    return errors.Join(errs...)
}

func canonical(v string, names []string) (string, bool) {
    v = strings.TrimSpace(v)
    for _, n := range names {
        if strings.EqualFold(v, n) {
            return n, true
        }
    }
    return "", false
}
