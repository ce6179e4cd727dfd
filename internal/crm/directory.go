package crm

import (
	"sort"
	"sync"
)

// Directory is the in-memory snapshot of buyers and properties the matcher
// works against. A sync pass replaces it wholesale; readers always see a
// consistent generation.
type Directory struct {
	mu         sync.RWMutex
	buyers     map[string]Buyer
	properties map[string]Property
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		buyers:     make(map[string]Buyer),
		properties: make(map[string]Property),
	}
}

// Replace swaps in a fresh generation of buyers and properties.
func (d *Directory) Replace(buyers []Buyer, properties []Property) {
	nextBuyers := make(map[string]Buyer, len(buyers))
	for _, b := range buyers {
		nextBuyers[b.ContactID] = b
	}
	nextProperties := make(map[string]Property, len(properties))
	for _, p := range properties {
		nextProperties[p.ID] = p
	}

	d.mu.Lock()
	d.buyers = nextBuyers
	d.properties = nextProperties
	d.mu.Unlock()
}

// Buyer looks up one buyer by contact id.
func (d *Directory) Buyer(contactID string) (Buyer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buyers[contactID]
	return b, ok
}

// Property looks up one property by id or record code.
func (d *Directory) Property(id string) (Property, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.properties[id]; ok {
		return p, true
	}
	for _, p := range d.properties {
		if p.Code != "" && p.Code == id {
			return p, true
		}
	}
	return Property{}, false
}

// Buyers returns all buyers, ordered by name for stable output.
func (d *Directory) Buyers() []Buyer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Buyer, 0, len(d.buyers))
	for _, b := range d.buyers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Properties returns all properties, ordered by address.
func (d *Directory) Properties() []Property {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Property, 0, len(d.properties))
	for _, p := range d.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
