package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// Keys is the untyped view of a YAML document, used for presence checks.
type Keys map[string]interface{}

// Has reports whether the dotted key (e.g. "data_ingestion.source_URL") is
// present and non-null.
func (k Keys) Has(dotted string) bool {
	var node interface{} = k
	for _, part := range strings.Split(dotted, ".") {
		var m map[string]interface{}
		switch v := node.(type) {
		case Keys:
			m = v
		case map[string]interface{}:
			m = v
		default:
			return false
		}
		var ok bool
		node, ok = m[part]
		if !ok || node == nil {
			return false
		}
	}
	return true
}

// Require returns a ConfigError naming the first absent key.
func (k Keys) Require(dotted ...string) error {
	for _, key := range dotted {
		if !k.Has(key) {
			return errortypes.ConfigError(fmt.Errorf("missing key %q", key), "invalid configuration").
				WithField("key", key)
		}
	}
	return nil
}

// ReadYAML strictly decodes the YAML document at path into out: unknown
// keys are rejected and an empty document is a ConfigError. The untyped
// view of the document is returned for presence checks.
func ReadYAML(path string, out interface{}) (Keys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to read yaml file").WithField("path", path)
	}

	var keys Keys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, errortypes.ConfigError(err, "malformed yaml file").WithField("path", path)
	}
	if len(keys) == 0 {
		return nil, errortypes.ConfigError(errors.New("yaml file is empty"), "invalid configuration").
			WithField("path", path)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return nil, errortypes.ConfigError(err, "malformed yaml file").WithField("path", path)
	}

	return keys, nil
}
