package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed seed.json
var defaultSeed []byte

type seedFile struct {
	Videos []Video `json:"videos"`
}

// LoadSeed reads the catalogue from path, or from the embedded default
// catalogue when path is empty.
func LoadSeed(path string) ([]Video, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalogue: %w", err)
		}
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(seed.Videos) == 0 {
		return nil, fmt.Errorf("catalogue contains no videos")
	}
	return seed.Videos, nil
}
