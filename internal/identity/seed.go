package identity

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// LoadSeed reads a JSON-with-comments file holding an array of users, the
// same shape as the stored directory.
func LoadSeed(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var users []User
	if err := json.Unmarshal(jsonc.ToJSON(data), &users); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return users, nil
}
