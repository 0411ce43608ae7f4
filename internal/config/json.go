package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		BundleID      string `json:"bundle_id"`
		HardwareModel string `json:"hardware_model"`
		CatalogPath   string `json:"catalog_path"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			Driver string `json:"driver"`
			DSN    string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Authority struct {
		BaseURL        string   `json:"base_url"`
		SigningKey     string   `json:"signing_key"`
		RequestTimeout Duration `json:"request_timeout"`
		PollInterval   Duration `json:"poll_interval"`
	} `json:"authority,omitempty"`

	Workers struct{} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			BundleID:      jsonCfg.App.BundleID,
			HardwareModel: jsonCfg.App.HardwareModel,
			CatalogPath:   jsonCfg.App.CatalogPath,
		},
		Storage: Storage{
			DB: DB{
				Driver: jsonCfg.Storage.DB.Driver,
				DSN:    jsonCfg.Storage.DB.DSN,
			},
		},
		Authority: Authority{
			BaseURL:        jsonCfg.Authority.BaseURL,
			SigningKey:     jsonCfg.Authority.SigningKey,
			RequestTimeout: time.Duration(jsonCfg.Authority.RequestTimeout),
			PollInterval:   time.Duration(jsonCfg.Authority.PollInterval),
		},
		Workers:      Workers{},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
