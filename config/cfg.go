package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"exsyn/rules"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	SyntaxConfig struct {
		Version    string       `yaml:"version" validate:"required"`
		Containers []string     `yaml:"containers" validate:"dive,required"`
		Rules      []rules.Rule `yaml:"rules" validate:"dive"`
	}

	StylesheetConfig struct {
		Embed bool   `yaml:"embed"`
		Path  string `yaml:"path,omitempty" sanitize:"assure_file_access"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string           `yaml:"output_name_template"`
		FileNameTransliterate bool             `yaml:"file_name_transliterate"`
		Stylesheet            StylesheetConfig `yaml:"stylesheet"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Syntax    SyntaxConfig   `yaml:"syntax"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// uniqueLabels makes sure rules could be addressed by label.
func uniqueLabels(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	seen := make(map[string]struct{}, len(cfg.Syntax.Rules))
	for i, r := range cfg.Syntax.Rules {
		if _, ok := seen[r.Label]; ok {
			sl.ReportError(cfg.Syntax.Rules[i].Label, fmt.Sprintf("rules[%d].label", i), "Label", "unique", r.Label)
			continue
		}
		seen[r.Label] = struct{}{}
	}
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
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(uniqueLabels)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation. Rule list from the file replaces
// default rules as a whole.
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

// RuleStore creates rule store from configured rule list.
func (conf *SyntaxConfig) RuleStore() *rules.Store {
	return rules.NewStore(conf.Version, conf.Rules)
}
