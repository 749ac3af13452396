package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"thememig/common"
	"thememig/exclusion"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ClassifierConfig struct {
		Strategy      common.Strategy        `yaml:"strategy"`
		Preprocess    common.PreprocessMode  `yaml:"preprocess"`
		Markers       bool                   `yaml:"markers"`
		ExtraPatterns []exclusion.PatternDef `yaml:"extra_patterns,omitempty" validate:"dive"`
	}

	OutputConfig struct {
		NameTemplate          string   `yaml:"name_template"`
		FileNameTransliterate bool     `yaml:"file_name_transliterate"`
		Extensions            []string `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
	}

	LedgerConfig struct {
		Path string `yaml:"path,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Classifier ClassifierConfig `yaml:"classifier"`
		Output     OutputConfig     `yaml:"output"`
		Ledger     LedgerConfig     `yaml:"ledger"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, output names are expanded
	// per file, not when configuration is loaded
	OutputNameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Options translates classifier configuration into classifier options.
func (conf *ClassifierConfig) Options() []exclusion.Option {
	opts := []exclusion.Option{
		exclusion.WithStrategy(conf.Strategy),
		exclusion.WithPreprocess(conf.Preprocess),
		exclusion.WithMarkers(conf.Markers),
	}
	if len(conf.ExtraPatterns) > 0 {
		opts = append(opts, exclusion.WithExtraPatterns(conf.ExtraPatterns...))
	}
	return opts
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		// patterns are compiled here so bad expression is reported as configuration error
		if len(cfg.Classifier.ExtraPatterns) > 0 {
			if _, err := exclusion.NewRegistry(append(exclusion.DefaultPatterns(), cfg.Classifier.ExtraPatterns...)); err != nil {
				return nil, fmt.Errorf("bad extra pattern: %w", err)
			}
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
