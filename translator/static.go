package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// StaticDirectory is an in-memory Directory for development and testing.
// Safe for concurrent use.
type StaticDirectory struct {
	mu          sync.RWMutex
	translators map[string]*Profile
	customers   map[string]*Customer
	blacklists  map[string]map[string]bool // customer -> translator -> excluded
	languages   map[job.LanguageID]string
}

var _ Directory = (*StaticDirectory)(nil)

// NewStaticDirectory returns an empty StaticDirectory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		translators: make(map[string]*Profile),
		customers:   make(map[string]*Customer),
		blacklists:  make(map[string]map[string]bool),
		languages:   make(map[job.LanguageID]string),
	}
}

// AddTranslator registers or replaces a translator profile.
func (d *StaticDirectory) AddTranslator(p *Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.translators[p.ID.String()] = &cp
}

// AddCustomer registers or replaces a customer record.
func (d *StaticDirectory) AddCustomer(c *Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *c
	d.customers[c.ID.String()] = &cp
}

// Blacklist excludes the translator from the customer's bookings.
func (d *StaticDirectory) Blacklist(customerID id.CustomerID, translatorID id.TranslatorID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := customerID.String()
	if d.blacklists[key] == nil {
		d.blacklists[key] = make(map[string]bool)
	}
	d.blacklists[key][translatorID.String()] = true
}

// AddLanguage registers a language display name.
func (d *StaticDirectory) AddLanguage(lang job.LanguageID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.languages[lang] = name
}

// ActiveTranslators returns every enabled translator profile.
func (d *StaticDirectory) ActiveTranslators(_ context.Context) ([]*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Profile, 0, len(d.translators))
	for _, p := range d.translators {
		if !p.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Profile returns one translator by ID.
func (d *StaticDirectory) Profile(_ context.Context, translatorID id.TranslatorID) (*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.translators[translatorID.String()]
	if !ok {
		return nil, booking.ErrTranslatorNotFound
	}
	cp := *p
	return &cp, nil
}

// ProfileByEmail resolves a translator by address, case-insensitively.
func (d *StaticDirectory) ProfileByEmail(_ context.Context, email string) (*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.translators {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, booking.ErrTranslatorNotFound
}

// Customer returns the customer record.
func (d *StaticDirectory) Customer(_ context.Context, customerID id.CustomerID) (*Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[customerID.String()]
	if !ok {
		return nil, fmt.Errorf("booking/translator: customer %s not in directory", customerID)
	}
	cp := *c
	return &cp, nil
}

// Blacklisted reports whether the customer has excluded the translator.
func (d *StaticDirectory) Blacklisted(_ context.Context, customerID id.CustomerID, translatorID id.TranslatorID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.blacklists[customerID.String()][translatorID.String()], nil
}

// LanguageName resolves a language ID to its display name.
func (d *StaticDirectory) LanguageName(_ context.Context, lang job.LanguageID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.languages[lang]
	if !ok {
		return fmt.Sprintf("language-%d", lang), nil
	}
	return name, nil
}
