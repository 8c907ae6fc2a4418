package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CityCenter holds the reference point used for center-distance features.
// Name must match the canonical (cleaned, lowercase) city value.
type CityCenter struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

type cityCenterFile struct {
	CityCenters []CityCenter `json:"city_centers"`
}

var (
	centersLock sync.RWMutex

	// The built-in table covers the cities the crawlers currently target.
	// A JSON file loaded via LoadCityCenters replaces it wholesale.
	cityCenters = []CityCenter{
		{Name: "zurich", Latitude: 47.3769, Longitude: 8.5417},
		{Name: "geneve", Latitude: 46.2044, Longitude: 6.1432},
		{Name: "basel", Latitude: 47.5596, Longitude: 7.5886},
		{Name: "bern", Latitude: 46.9480, Longitude: 7.4474},
		{Name: "lausanne", Latitude: 46.5197, Longitude: 6.6323},
		{Name: "winterthur", Latitude: 47.4999, Longitude: 8.7237},
		{Name: "luzern", Latitude: 47.0502, Longitude: 8.3093},
		{Name: "st gallen", Latitude: 47.4245, Longitude: 9.3767},
		{Name: "lugano", Latitude: 46.0037, Longitude: 8.9511},
		{Name: "biel", Latitude: 47.1368, Longitude: 7.2468},
	}
)

// LoadCityCenters replaces the built-in center table with the contents of a
// JSON config file. An empty path keeps the defaults.
func LoadCityCenters(path string) error {
	if path == "" {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	var file cityCenterFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}
	if len(file.CityCenters) == 0 {
		return fmt.Errorf("no city centers in config file: %s", path)
	}

	centersLock.Lock()
	defer centersLock.Unlock()
	cityCenters = file.CityCenters
	return nil
}

// GetCityCenters returns a copy of the configured center table.
func GetCityCenters() []CityCenter {
	centersLock.RLock()
	defer centersLock.RUnlock()

	centers := make([]CityCenter, len(cityCenters))
	copy(centers, cityCenters)
	return centers
}

// GetCityCenter returns the center for a canonical city name, or nil when
// the city is not configured.
func GetCityCenter(name string) *CityCenter {
	centersLock.RLock()
	defer centersLock.RUnlock()

	for _, center := range cityCenters {
		if center.Name == name {
			c := center
			return &c
		}
	}
	return nil
}
