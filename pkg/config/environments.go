package config

func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/data.sqlite"
	cfg.JWTSecret = "development-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.UploadsDir = "./tmp/uploads"
}

func loadTestConfig(cfg *Config) {
	cfg.DatabaseFilePath = ":memory:"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.UploadsDir = "./tmp/test-uploads"
}

func loadProductionConfig(cfg *Config) {
	cfg.DatabaseFilePath = "/data/pustok.sqlite"
	cfg.ServerHost = ""
	cfg.UploadsDir = "/data/uploads"
}
