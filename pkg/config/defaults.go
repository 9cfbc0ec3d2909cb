package config

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Output defaults.
const (
	DefaultOutputFormat = FormatTable
	DefaultOutputColor  = true
	DefaultMaxRuns      = 0
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultOTLPHeaders  = ""
	DefaultSampleRatio  = 0.0
	DefaultMetricsFile  = ""
	DefaultEnvironment  = ""
)

// Output formats.
const (
	FormatTable = "table"
	FormatPlain = "plain"
	FormatJSON  = "json"
)
