package keystore

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

const fileMode = 0o600

// WriteFile stores ks at path. An existing file is never overwritten.
func WriteFile(path string, ks *KeystoreJSON) error {
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore JSON")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to create keystore file %s", path)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write keystore file %s", path)
	}

	return errors.Wrapf(f.Close(), "failed to close keystore file %s", path)
}

// ReadFile loads a keystore from path.
func ReadFile(path string) (*KeystoreJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keystore file %s", path)
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}
