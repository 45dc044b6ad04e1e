package config

const (
	defaultBind           = ":8081"
	defaultPublicDir      = "public"
	defaultStoreDriver    = "json"
	defaultStorePath      = "requests.json"
	defaultUploadsDir     = "uploads"
	defaultCodePrefix     = "GC30"
	defaultMinImages      = 3
	defaultMaxImages      = 10
	defaultMaxFileSizeMB  = 5
	defaultMailHost       = "smtp.gmail.com"
	defaultMailPort       = 587
	defaultOperator       = "gc30test@gmail.com"
	defaultMailTimeoutSec = 30
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:      defaultBind,
			PublicDir: defaultPublicDir,
		},
		Storage: Storage{
			Driver:     defaultStoreDriver,
			Path:       defaultStorePath,
			UploadsDir: defaultUploadsDir,
		},
		Intake: Intake{
			CodePrefix:    defaultCodePrefix,
			MinImages:     defaultMinImages,
			MaxImages:     defaultMaxImages,
			MaxFileSizeMB: defaultMaxFileSizeMB,
		},
		Mail: Mail{
			Host:           defaultMailHost,
			Port:           defaultMailPort,
			Operator:       defaultOperator,
			TimeoutSeconds: defaultMailTimeoutSec,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
