package config

// Overrides carries explicitly-set values layered over a loaded Config.
// Pointer fields distinguish "not set" (nil) from an explicit zero
// value, so --build-upon-default-config=false is honored rather than
// falling back to the default.
type Overrides struct {
	ConfigNames            []string
	BaselineNames          []string
	BuildUponDefaultConfig *bool
	Executable             *string
	TriggerFilePatterns    []string
	MetricsAddr            *string
	OTLPEndpoint           *string
	LogJSON                *bool
}

// Apply merges the overrides into cfg. Nil (unset) fields leave the
// loaded value untouched.
func (o Overrides) Apply(cfg *Config) {
	if o.ConfigNames != nil {
		cfg.Lint.ConfigNames = o.ConfigNames
	}

	if o.BaselineNames != nil {
		cfg.Lint.BaselineNames = o.BaselineNames
	}

	if o.BuildUponDefaultConfig != nil {
		cfg.Lint.BuildUponDefaultConfig = *o.BuildUponDefaultConfig
	}

	if o.Executable != nil {
		cfg.Lint.Executable = *o.Executable
	}

	if o.TriggerFilePatterns != nil {
		cfg.Lint.TriggerFilePatterns = o.TriggerFilePatterns
	}

	if o.MetricsAddr != nil {
		cfg.Observability.MetricsAddr = *o.MetricsAddr
	}

	if o.OTLPEndpoint != nil {
		cfg.Observability.OTLPEndpoint = *o.OTLPEndpoint
	}

	if o.LogJSON != nil {
		cfg.Observability.LogJSON = *o.LogJSON
	}
}
