// Package portstest provides in-memory implementations of the repository and cache ports
// for tests of the services, the REST adapter and the feature suite.
package portstest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// Cities is an in-memory CityRepository.
type Cities struct {
	mu     sync.RWMutex
	cities map[int64]domain.City
}

func NewCities(cities ...domain.City) *Cities {
	c := &Cities{cities: make(map[int64]domain.City, len(cities))}
	for _, city := range cities {
		c.cities[city.ID] = city
	}

	return c
}

// FindByName matches case-insensitively on the name and alternate names, like the SQL prefilter.
func (c *Cities) FindByName(_ context.Context, name string) ([]domain.City, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.City

	for _, city := range c.cities {
		if strings.EqualFold(city.Name, name) {
			out = append(out, city)
			continue
		}

		for _, alt := range city.AlternateNames {
			if strings.EqualFold(alt, name) {
				out = append(out, city)
				break
			}
		}
	}

	return out, nil
}

func (c *Cities) FindByID(_ context.Context, id int64) (*domain.City, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	city, ok := c.cities[id]
	if !ok {
		return nil, fmt.Errorf("city %d: %w", id, ports.ErrNotFound)
	}

	return &city, nil
}

// Precipitation maps condition codes to categories.
type Precipitation struct {
	mu    sync.RWMutex
	codes map[int]domain.Precipitation
}

func NewPrecipitation(codes map[int]domain.Precipitation) *Precipitation {
	p := &Precipitation{codes: make(map[int]domain.Precipitation, len(codes))}
	for code, category := range codes {
		p.codes[code] = category
	}

	return p
}

func (p *Precipitation) FindByCode(_ context.Context, code int) (domain.Precipitation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	category, ok := p.codes[code]
	if !ok {
		return domain.PrecipitationUnclassified, fmt.Errorf("condition code %d: %w", code, ports.ErrNotFound)
	}

	return category, nil
}

// Clothing holds clothing documents keyed by range.
type Clothing struct {
	mu   sync.RWMutex
	docs map[domain.TemperatureRange]domain.ClothingDocument
}

func NewClothing(docs ...domain.ClothingDocument) *Clothing {
	c := &Clothing{docs: make(map[domain.TemperatureRange]domain.ClothingDocument, len(docs))}
	for _, doc := range docs {
		c.docs[doc.Range] = doc
	}

	return c
}

func (c *Clothing) FindByRange(_ context.Context, r domain.TemperatureRange) (*domain.ClothingDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[r]
	if !ok {
		return nil, fmt.Errorf("clothing %s: %w", r, ports.ErrNotFound)
	}

	return &doc, nil
}

// History records every insert. Err, when set, fails every call.
type History struct {
	mu         sync.Mutex
	Err        error
	CityRows   []domain.CitySearch
	CoordsRows []domain.CoordinatesSearch
}

func (h *History) LatestCitySearch(_ context.Context, userID, cityID int64) (time.Time, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Err != nil {
		return time.Time{}, false, h.Err
	}

	var (
		latest time.Time
		found  bool
	)

	for _, row := range h.CityRows {
		if row.UserID == userID && row.CityID == cityID && (!found || row.RequestedAt.After(latest)) {
			latest, found = row.RequestedAt, true
		}
	}

	return latest, found, nil
}

func (h *History) InsertCitySearch(_ context.Context, entry domain.CitySearch) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Err != nil {
		return h.Err
	}

	h.CityRows = append(h.CityRows, entry)

	return nil
}

func (h *History) LatestCoordinatesSearch(_ context.Context, userID int64, coords domain.Coordinates) (time.Time, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Err != nil {
		return time.Time{}, false, h.Err
	}

	var (
		latest time.Time
		found  bool
	)

	for _, row := range h.CoordsRows {
		if row.UserID == userID && row.Coordinates == coords && (!found || row.RequestedAt.After(latest)) {
			latest, found = row.RequestedAt, true
		}
	}

	return latest, found, nil
}

func (h *History) InsertCoordinatesSearch(_ context.Context, entry domain.CoordinatesSearch) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Err != nil {
		return h.Err
	}

	h.CoordsRows = append(h.CoordsRows, entry)

	return nil
}

// CityRowCount returns the number of stored city rows.
func (h *History) CityRowCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.CityRows)
}

// CoordinatesRowCount returns the number of stored coordinate rows.
func (h *History) CoordinatesRowCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.CoordsRows)
}

// Cache is a map-backed CacheService without expiry. Err, when set, fails every call.
type Cache struct {
	mu   sync.Mutex
	Err  error
	data map[string][]byte
	TTLs map[string]time.Duration
}

func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte), TTLs: make(map[string]time.Duration)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}

	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}

	return v, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}

	c.data[key] = append([]byte(nil), value...)
	c.TTLs[key] = ttl

	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	delete(c.TTLs, key)

	return nil
}

func (c *Cache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string][]byte)
	c.TTLs = make(map[string]time.Duration)

	return nil
}

// Keys lists the stored keys.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}

	return keys
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
