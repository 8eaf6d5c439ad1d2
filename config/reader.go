package config

import (
	"bytes"
	"io"
	"reflect"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/fieldbot/lockon/logging"
)

// Read reads a config from the given file, expanding environment variables in it.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}
	cfg, err := FromReader(filePath, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromReader reads a JSON5 config from the given reader, so comments and trailing commas are allowed.
// Keys the document leaves out keep their defaults.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config")
	}
	var attributes map[string]interface{}
	if err := json5.Unmarshal(buf, &attributes); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}
	cfg, err := FromAttributes(attributes)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromAttributes decodes an attribute map over the defaults. Unknown keys are an error.
func FromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToLevelHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}
	return cfg, nil
}

func stringToLevelHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(logging.Level(0)) {
			return data, nil
		}
		//nolint:forcetypeassert
		return logging.LevelFromString(data.(string))
	}
}
