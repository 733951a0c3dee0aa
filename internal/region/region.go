package region

import (
	"log"
	"sort"
)

// DefaultRegion is used when a request carries no region or an unknown one.
const DefaultRegion = "서울"

// Coords is a KMA forecast grid coordinate.
type Coords struct {
	NX string `json:"nx"`
	NY string `json:"ny"`
}

var builtin = map[string]Coords{
	"서울":  {NX: "60", NY: "127"},
	"양주":  {NX: "60", NY: "121"},
	"양평":  {NX: "60", NY: "121"},
	"인천":  {NX: "55", NY: "124"},
	"강원":  {NX: "73", NY: "134"},
	"충북":  {NX: "69", NY: "107"},
	"충남":  {NX: "67", NY: "100"},
	"대전":  {NX: "67", NY: "100"},
	"세종":  {NX: "67", NY: "100"},
	"전북":  {NX: "63", NY: "89"},
	"광주":  {NX: "58", NY: "74"},
	"전남":  {NX: "58", NY: "74"},
	"대구":  {NX: "89", NY: "90"},
	"경북":  {NX: "102", NY: "94"},
	"울릉도": {NX: "102", NY: "115"},
	"경남":  {NX: "98", NY: "76"},
	"부산":  {NX: "98", NY: "76"},
	"울산":  {NX: "102", NY: "84"},
	"제주":  {NX: "52", NY: "38"},
	"시흥":  {NX: "56", NY: "122"},
}

// Catalog maps region names to grid coordinates. It is read-only after construction.
type Catalog struct {
	coords map[string]Coords
}

// NewCatalog builds a catalog from the built-in table plus overrides.
// An override with an existing name replaces the built-in entry.
func NewCatalog(overrides map[string]Coords) *Catalog {
	coords := make(map[string]Coords, len(builtin)+len(overrides))
	for name, c := range builtin {
		coords[name] = c
	}
	for name, c := range overrides {
		if name == "" || c.NX == "" || c.NY == "" {
			log.Printf("Warning: ignoring incomplete region override %q", name)
			continue
		}
		coords[name] = c
	}
	return &Catalog{coords: coords}
}

// Lookup returns the coordinates for name. Unknown names fall back to DefaultRegion;
// the returned name is the region the coordinates actually belong to.
func (c *Catalog) Lookup(name string) (string, Coords) {
	if name == "" {
		return DefaultRegion, c.coords[DefaultRegion]
	}
	if coords, ok := c.coords[name]; ok {
		return name, coords
	}
	log.Printf("Unknown Region: %s, Fallback to %s", name, DefaultRegion)
	return DefaultRegion, c.coords[DefaultRegion]
}

// Has reports whether name is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.coords[name]
	return ok
}

// Names returns every region name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.coords))
	for name := range c.coords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the table.
func (c *Catalog) All() map[string]Coords {
	out := make(map[string]Coords, len(c.coords))
	for name, coords := range c.coords {
		out[name] = coords
	}
	return out
}
