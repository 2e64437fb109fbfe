// Package translator defines translator profiles and the read-only
// directory contract the booking core consumes. Profiles are owned by the
// importing application (its user system); the core only reads them.
package translator

import (
	"context"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// Type classifies a translator and determines which booking types they serve.
type Type string

const (
	// TypeProfessional translators serve paid bookings.
	TypeProfessional Type = "professional"
	// TypeRWS translators serve rws bookings only.
	TypeRWS Type = "rwstranslator"
	// TypeVolunteer translators serve unpaid bookings only.
	TypeVolunteer Type = "volunteer"
)

// ServesType returns the booking type this translator type is matched to.
func (t Type) ServesType() job.Type {
	switch t {
	case TypeProfessional:
		return job.TypePaid
	case TypeRWS:
		return job.TypeRWS
	case TypeVolunteer:
		return job.TypeUnpaid
	}
	return ""
}

// Level is a certification level held by a translator.
type Level string

const (
	LevelCertified       Level = "Certified"
	LevelCertifiedLaw    Level = "Certified with specialisation in law"
	LevelCertifiedHealth Level = "Certified with specialisation in health care"
	LevelLayman          Level = "Layman"
	LevelReadCourses     Level = "Read Translation courses"
)

// Prefs are a user's notification opt-outs.
type Prefs struct {
	// OptOutAll suppresses every push to this user.
	OptOutAll bool
	// OptOutEmergency suppresses pushes for immediate bookings.
	OptOutEmergency bool
	// OptOutNight defers pushes sent during the night window to the next
	// business time.
	OptOutNight bool
}

// Profile is a translator as seen by the matching engine.
type Profile struct {
	ID        id.TranslatorID
	Name      string
	Email     string
	Mobile    string
	Type      Type
	Gender    job.Gender
	Levels    []Level
	Languages []job.LanguageID
	Town      string
	Active    bool
	Prefs     Prefs
}

// Speaks reports whether the translator speaks the given source language.
func (p *Profile) Speaks(lang job.LanguageID) bool {
	for _, l := range p.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// HoldsAny reports whether the translator holds at least one of the levels.
func (p *Profile) HoldsAny(levels []Level) bool {
	for _, want := range levels {
		for _, have := range p.Levels {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Customer is the booking core's view of a requesting customer.
type Customer struct {
	ID    id.CustomerID
	Name  string
	Email string
	Town  string
	// ConsumerCategory feeds job.TypeForConsumer at booking creation.
	ConsumerCategory string
	Prefs            Prefs
}

// Directory is the read-only collaborator resolving users for matching and
// notification. Implementations are provided by the importing application.
type Directory interface {
	// ActiveTranslators returns every enabled translator profile.
	ActiveTranslators(ctx context.Context) ([]*Profile, error)

	// Profile returns one translator, or booking.ErrTranslatorNotFound.
	Profile(ctx context.Context, translatorID id.TranslatorID) (*Profile, error)

	// ProfileByEmail resolves a translator by address, for admin
	// reassignment forms that supply an email instead of an ID.
	ProfileByEmail(ctx context.Context, email string) (*Profile, error)

	// Customer returns the requesting customer's contact record.
	Customer(ctx context.Context, customerID id.CustomerID) (*Customer, error)

	// Blacklisted reports whether the customer has excluded the translator.
	Blacklisted(ctx context.Context, customerID id.CustomerID, translatorID id.TranslatorID) (bool, error)

	// LanguageName resolves a language ID to its display name for message
	// template parameters.
	LanguageName(ctx context.Context, lang job.LanguageID) (string, error)
}
