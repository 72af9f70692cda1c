package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.SQLitePath != ".chembank/chembank.db" || cfg.ImageBatchSize != 10 || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := cfg.RequireS3(); err == nil {
		t.Error("expected missing bucket to be reported")
	}
}

func TestLoadFrom_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHEMBANK_SQLITE_PATH", "/data/store.db")
	t.Setenv("CHEMBANK_IMAGE_BATCH_SIZE", "25")
	t.Setenv("CHEMBANK_S3_BUCKET", "molecules")

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.SQLitePath != "/data/store.db" || cfg.ImageBatchSize != 25 || cfg.S3Bucket != "molecules" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if err := cfg.RequireS3(); err != nil {
		t.Errorf("bucket is configured: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		SQLitePath:     "a.db",
		FSMDBPath:      "fsm",
		ImageBatchSize: 10,
		LogLevel:       "info",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty sqlite path", func(c *Config) { c.SQLitePath = "" }, true},
		{"zero batch size", func(c *Config) { c.ImageBatchSize = 0 }, true},
		{"negative image size", func(c *Config) { c.MaxImageSize = -1 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad endpoint", func(c *Config) { c.S3Endpoint = "not a url" }, true},
		{"minio endpoint", func(c *Config) { c.S3Endpoint = "http://localhost:9000" }, false},
		{"bucket without region", func(c *Config) { c.S3Bucket = "b"; c.S3Region = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
