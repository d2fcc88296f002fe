package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDevices() ([]DeviceData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Devices     []DeviceData     `yaml:"devices"`
	Storage     StorageData      `yaml:"storage,omitempty"`
	Controllers []ControllerData `yaml:"controllers,omitempty"`
	ModelDB     ModelDBData      `yaml:"model-db,omitempty"`
}

// DeviceData holds configuration for one welding station's combined
// serial link (PLC + laser on a shared stream). Either a serial device or
// hostname+port must be set.
type DeviceData struct {
	Name             string       `yaml:"name"`
	Enabled          bool         `yaml:"enabled"`
	Hostname         string       `yaml:"hostname,omitempty"`
	Port             string       `yaml:"port,omitempty"`
	SerialDevice     string       `yaml:"serial-device,omitempty"`
	Baud             int          `yaml:"baud,omitempty"`
	LivenessTimeout  string       `yaml:"liveness-timeout,omitempty"`  // default 5s
	ReconnectBackoff string       `yaml:"reconnect-backoff,omitempty"` // default 1.5s
	Detector         DetectorData `yaml:"detector,omitempty"`
}

// DetectorData holds the per-station cycle detector tuning. Zero values
// fall back to the production defaults.
type DetectorData struct {
	Threshold             float64 `yaml:"threshold,omitempty"`
	MaxWeldSlope          float64 `yaml:"max-weld-slope,omitempty"`
	MaxPlausibleWeldDepth float64 `yaml:"max-plausible-weld-depth,omitempty"`
	MinWeldSamples        int     `yaml:"min-weld-samples,omitempty"`
	ReferenceStableSlope  float64 `yaml:"reference-stable-slope,omitempty"`
	ReferenceStableCount  int     `yaml:"reference-stable-count,omitempty"`
}

// StorageData holds the configuration for various cycle result sinks
type StorageData struct {
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty"`
	Journal     *JournalData     `yaml:"journal,omitempty"`
	SPC         *SPCData         `yaml:"spc,omitempty"`
	Alert       *AlertData       `yaml:"alert,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `yaml:"connection-string"`
}

// JournalData configures the local append-only result spool.
type JournalData struct {
	Path string `yaml:"path"`
}

// SPCData configures the in-memory process-capability window.
type SPCData struct {
	WindowSize int `yaml:"window-size,omitempty"`
}

// AlertData configures FAIL-cycle alerting via an SMS gateway endpoint.
type AlertData struct {
	GatewayURL string   `yaml:"gateway-url"`
	Recipients []string `yaml:"recipients,omitempty"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerData `yaml:"rest,omitempty"`
}

type RESTServerData struct {
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}

// ModelDBData locates the plant-floor model database.
type ModelDBData struct {
	Path         string `yaml:"path"`
	PollInterval string `yaml:"poll-interval,omitempty"` // default 500ms
}
