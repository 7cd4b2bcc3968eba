package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// City represents a municipality the simulator and map know about
type City struct {
	Name     string    `json:"name"`
	Province string    `json:"province"`
	Center   []float64 `json:"center"`
}

// MapCenter is the default map center (geographic center of the Philippines)
var MapCenter = []float64{12.8797, 121.7740}

// SupportedCities is the built-in list of CALABARZON municipalities
var SupportedCities = []City{
	{Name: "Lucena", Province: "Quezon", Center: []float64{13.9314, 121.6172}},
	{Name: "San Pablo", Province: "Laguna", Center: []float64{14.0696, 121.3256}},
	{Name: "Batangas City", Province: "Batangas", Center: []float64{13.7565, 121.0583}},
	{Name: "Trece Martires", Province: "Cavite", Center: []float64{14.2817, 120.8647}},
	{Name: "Antipolo", Province: "Rizal", Center: []float64{14.6255, 121.1245}},
	{Name: "Tanauan", Province: "Batangas", Center: []float64{14.0867, 121.1496}},
	{Name: "Calamba", Province: "Laguna", Center: []float64{14.1870, 121.1251}},
	{Name: "Lipa", Province: "Batangas", Center: []float64{13.9411, 121.1631}},
	{Name: "Tayabas", Province: "Quezon", Center: []float64{14.0247, 121.5918}},
	{Name: "Cainta", Province: "Rizal", Center: []float64{14.5786, 121.1227}},
}

var (
	cities    []City
	citiesMux sync.RWMutex
)

// LoadCities replaces the city list with the contents of a JSON file
func LoadCities(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read cities file: %w", err)
	}

	var loaded []City
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse cities file: %w", err)
	}
	for _, c := range loaded {
		if c.Name == "" || len(c.Center) != 2 {
			return fmt.Errorf("invalid city entry %q: name and a [lat, lng] center are required", c.Name)
		}
	}

	citiesMux.Lock()
	defer citiesMux.Unlock()
	cities = loaded
	return nil
}

// GetCities returns the loaded cities, or the built-in list
func GetCities() []City {
	citiesMux.RLock()
	defer citiesMux.RUnlock()

	src := SupportedCities
	if cities != nil {
		src = cities
	}
	out := make([]City, len(src))
	copy(out, src)
	return out
}

// GetCityNames returns a list of supported city names
func GetCityNames() []string {
	list := GetCities()
	names := make([]string, len(list))
	for i, city := range list {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city configuration by name
func GetCityByName(name string) *City {
	for _, city := range GetCities() {
		if city.Name == name {
			return &city
		}
	}
	return nil
}

func resetCities() {
	citiesMux.Lock()
	defer citiesMux.Unlock()
	cities = nil
}
