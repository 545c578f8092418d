package config

import (
	"encoding/json"
	"fmt"
	"os"

	"fleetbot/internal/domain"
)

type accountsFile struct {
	Accounts []domain.Account `json:"accounts"`
}

// LoadAccounts reads the ordered account list from a JSON file of the form
// {"accounts":[{"username":"...","password":"..."}]}. A missing or
// malformed file is a configuration error, not an authentication error.
func LoadAccounts(path string) ([]domain.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file %s: %w", path, err)
	}
	var parsed accountsFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse accounts file %s: %w", path, err)
	}
	return parsed.Accounts, nil
}
