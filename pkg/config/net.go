package config

import "time"

// LinkConfig describes the virtual links between simulated nodes.
// Radio covers pedestrian/vehicle <-> gNB hops, Backbone covers gNB <-> cloud.
// A zero bandwidth means serialization delay is ignored on that link.
type LinkConfig struct {
    RadioLatency    time.Duration `mapstructure:"radio_latency" yaml:"radio_latency"`
    RadioMbps       float64       `mapstructure:"radio_mbps" yaml:"radio_mbps"`
    BackboneLatency time.Duration `mapstructure:"backbone_latency" yaml:"backbone_latency"`
    BackboneMbps    float64       `mapstructure:"backbone_mbps" yaml:"backbone_mbps"`
    // CorruptRate is the probability that a delivered frame arrives damaged
    CorruptRate float64 `mapstructure:"corrupt_rate" yaml:"corrupt_rate"`
}
