// Package match computes translator eligibility for bookings. The predicate
// covers booking type, source language, gender, certification level, the
// customer's blacklist, and town co-location for physical-only bookings.
package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/translator"
)

// ExpandLevels maps a booking's certification requirement onto the disjoint
// set of translator levels that satisfy it. An empty requirement accepts
// every level.
func ExpandLevels(c job.Certification) []translator.Level {
	switch c {
	case job.CertCertified, job.CertBoth:
		return []translator.Level{
			translator.LevelCertified,
			translator.LevelCertifiedLaw,
			translator.LevelCertifiedHealth,
		}
	case job.CertLaw, job.CertNormalLaw:
		return []translator.Level{translator.LevelCertifiedLaw}
	case job.CertHealth, job.CertNormalHealth:
		return []translator.Level{translator.LevelCertifiedHealth}
	case job.CertNormal:
		return []translator.Level{
			translator.LevelLayman,
			translator.LevelReadCourses,
		}
	default:
		return []translator.Level{
			translator.LevelCertified,
			translator.LevelCertifiedLaw,
			translator.LevelCertifiedHealth,
			translator.LevelLayman,
			translator.LevelReadCourses,
		}
	}
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the matcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// Matcher computes eligible translator sets for bookings and potential
// booking sets for translators.
type Matcher struct {
	store  job.Store
	dir    translator.Directory
	logger *slog.Logger
}

// New creates a Matcher over the given store and directory.
func New(store job.Store, dir translator.Directory, opts ...Option) *Matcher {
	m := &Matcher{
		store:  store,
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fits reports whether the translator satisfies every matching constraint
// of the booking.
func (m *Matcher) Fits(ctx context.Context, j *job.Job, p *translator.Profile) (bool, error) {
	if !p.Active {
		return false, nil
	}
	if p.Type.ServesType() != j.Type {
		return false, nil
	}
	if !p.Speaks(j.FromLanguage) {
		return false, nil
	}
	if j.Gender != job.GenderAny && p.Gender != j.Gender {
		return false, nil
	}
	if !p.HoldsAny(ExpandLevels(j.Certification)) {
		return false, nil
	}
	// Physical-only bookings require the translator in the same town.
	if j.PhysicalOnly() && j.Town != "" && p.Town != j.Town {
		return false, nil
	}

	excluded, err := m.dir.Blacklisted(ctx, j.CustomerID, p.ID)
	if err != nil {
		return false, fmt.Errorf("booking/match: blacklist lookup: %w", err)
	}
	return !excluded, nil
}

// Eligible returns every active translator who may serve the booking.
func (m *Matcher) Eligible(ctx context.Context, j *job.Job) ([]*translator.Profile, error) {
	all, err := m.dir.ActiveTranslators(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking/match: list translators: %w", err)
	}

	eligible := make([]*translator.Profile, 0, len(all))
	for _, p := range all {
		ok, err := m.Fits(ctx, j, p)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, p)
		}
	}

	m.logger.Debug("matched translators",
		slog.String("job_id", j.ID.String()),
		slog.Int("candidates", len(all)),
		slog.Int("eligible", len(eligible)),
	)
	return eligible, nil
}

// PotentialJobs returns every pending booking the translator could claim
// right now. Used both for the translator's job feed and as the
// stale-match guard during notification fan-out.
func (m *Matcher) PotentialJobs(ctx context.Context, translatorID id.TranslatorID) ([]*job.Job, error) {
	p, err := m.dir.Profile(ctx, translatorID)
	if err != nil {
		return nil, err
	}

	candidates, err := m.store.ListPendingJobs(ctx, job.MatchFilter{
		Type:      p.Type.ServesType(),
		Languages: p.Languages,
	})
	if err != nil {
		return nil, fmt.Errorf("booking/match: list pending jobs: %w", err)
	}

	jobs := make([]*job.Job, 0, len(candidates))
	for _, j := range candidates {
		ok, err := m.Fits(ctx, j, p)
		if err != nil {
			return nil, err
		}
		if ok {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}
