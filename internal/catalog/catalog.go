// Package catalog holds the process-wide reference tables: districts, city
// names, the reverse name index and weather-type descriptions. Tables are
// replaced wholesale on reload; readers always observe a complete snapshot,
// never a half-built table.
package catalog

import (
	"strings"
	"sync"

	"github.com/brandao-20/mcp-server-ipma/internal/models"
)

// UnknownDescription is returned for weather-type codes that do not resolve.
const UnknownDescription = "Descrição não disponível"

type Catalog struct {
	mu           sync.RWMutex
	districts    map[string]models.District
	cities       map[string]string
	nameIndex    map[string]string
	weatherTypes map[int]string
}

func New() *Catalog {
	return &Catalog{
		districts:    map[string]models.District{},
		cities:       map[string]string{},
		nameIndex:    map[string]string{},
		weatherTypes: map[int]string{},
	}
}

// Districts returns the current district table. The returned map is a shared
// snapshot; callers must treat it as read-only.
func (c *Catalog) Districts() map[string]models.District {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.districts
}

// Cities returns the full city table (global id to display name) as a shared
// read-only snapshot.
func (c *Catalog) Cities() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cities
}

// CitiesInDistrict returns the city map for one district id, reporting
// whether the district exists.
func (c *Catalog) CitiesInDistrict(districtID string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.districts[districtID]
	if !ok {
		return nil, false
	}
	return d.Cities, true
}

// CityName resolves a global id to its display name.
func (c *Catalog) CityName(globalID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.cities[globalID]
	return name, ok
}

// ResolveCity resolves a display name, case-insensitively, to a global id.
func (c *Catalog) ResolveCity(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gid, ok := c.nameIndex[strings.ToLower(strings.TrimSpace(name))]
	return gid, ok
}

// WeatherDescription resolves a weather-type code, degrading to
// UnknownDescription for codes the classification table does not carry.
func (c *Catalog) WeatherDescription(code int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.weatherTypes[code]
	if !ok {
		return UnknownDescription
	}
	return desc
}

// Counts reports the current table sizes (districts, cities, weather types).
func (c *Catalog) Counts() (int, int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.districts), len(c.cities), len(c.weatherTypes)
}

// ReplaceDistricts swaps in freshly built district, city and name-index
// tables. The maps must not be mutated after the call.
func (c *Catalog) ReplaceDistricts(districts map[string]models.District, cities, nameIndex map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.districts = districts
	c.cities = cities
	c.nameIndex = nameIndex
}

// ReplaceWeatherTypes swaps in a freshly built weather-type table.
func (c *Catalog) ReplaceWeatherTypes(types map[int]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weatherTypes = types
}
