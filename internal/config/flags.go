package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags holds command-line overrides bound to a pflag.FlagSet. Values are
// read after the set is parsed, so a single Flags can be registered on a
// cobra root command's persistent flags.
type Flags struct {
	configPath     string
	serverAddress  string
	hashKey        string
	deviceName     string
	logFile        string
	databaseDSN    string
	keyFile        string
	requestTimeout time.Duration
	retryCount     int
	retryWait      time.Duration
	syncInterval   time.Duration
}

// BindFlags registers all configuration flags on fs.
//
// Flags:
//
//	-a/--address     sync server address (host:port or URL)
//	-c/--config      json file path with configs
//	-d/--dsn         local database path
//	-k/--key-file    account key file path
//	--hash-key       request integrity hash key
//	--device-name    device name used on registration
//	--log-file       log file path
//	--request-timeout request timeout (e.g., "30s", "1m")
//	--retry-count    transport retry count
//	--retry-wait     wait between transport retries
//	--sync-interval  background sync period (e.g., "5m")
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVarP(&f.serverAddress, "address", "a", "", "Sync server address host:port or URL")
	fs.StringVarP(&f.configPath, "config", "c", "", "JSON config file path")
	fs.StringVarP(&f.databaseDSN, "dsn", "d", "", "Local database path")
	fs.StringVarP(&f.keyFile, "key-file", "k", "", "Account key file path")
	fs.StringVar(&f.hashKey, "hash-key", "", "Request integrity hash key")
	fs.StringVar(&f.deviceName, "device-name", "", "Device name used on registration")
	fs.StringVar(&f.logFile, "log-file", "", "Log file path")
	fs.DurationVar(&f.requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.IntVar(&f.retryCount, "retry-count", 0, "Transport retry count")
	fs.DurationVar(&f.retryWait, "retry-wait", 0, "Wait between transport retries")
	fs.DurationVar(&f.syncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")

	return f
}

func (f *Flags) config() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			HashKey:    f.hashKey,
			DeviceName: f.deviceName,
			LogFile:    f.logFile,
		},
		Storage: Storage{
			DB:      DB{DSN: f.databaseDSN},
			KeyFile: f.keyFile,
		},
		Adapter: Adapter{
			HTTPAddress:    f.serverAddress,
			RequestTimeout: f.requestTimeout,
			RetryCount:     f.retryCount,
			RetryWait:      f.retryWait,
		},
		Workers:      Workers{SyncInterval: f.syncInterval},
		JSONFilePath: f.configPath,
	}
}
