package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/match"
	"github.com/xraph/booking/store/memory"
	"github.com/xraph/booking/translator"
)

func baseProfile() *translator.Profile {
	return &translator.Profile{
		ID:        id.NewTranslatorID(),
		Name:      "Jean Dupont",
		Email:     "jean@example.com",
		Type:      translator.TypeProfessional,
		Gender:    job.GenderMale,
		Levels:    []translator.Level{translator.LevelCertified},
		Languages: []job.LanguageID{7},
		Town:      "Stockholm",
		Active:    true,
	}
}

func baseJob() *job.Job {
	return &job.Job{
		ID:           id.NewJobID(),
		CustomerID:   id.NewCustomerID(),
		Status:       job.StatusPending,
		FromLanguage: 7,
		Due:          time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC),
		Duration:     time.Hour,
		Type:         job.TypePaid,
		PhoneBooking: true,
		WillExpireAt: time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC),
	}
}

func TestExpandLevels(t *testing.T) {
	tests := []struct {
		cert job.Certification
		want int
	}{
		{job.CertAny, 5},
		{job.CertCertified, 3},
		{job.CertBoth, 3},
		{job.CertLaw, 1},
		{job.CertNormalLaw, 1},
		{job.CertHealth, 1},
		{job.CertNormalHealth, 1},
		{job.CertNormal, 2},
	}
	for _, tc := range tests {
		if got := match.ExpandLevels(tc.cert); len(got) != tc.want {
			t.Errorf("ExpandLevels(%q) = %d levels, want %d", tc.cert, len(got), tc.want)
		}
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*job.Job, *translator.Profile)
		want   bool
	}{
		{"baseline", func(*job.Job, *translator.Profile) {}, true},
		{
			"inactive translator",
			func(_ *job.Job, p *translator.Profile) { p.Active = false },
			false,
		},
		{
			"type mismatch",
			func(_ *job.Job, p *translator.Profile) { p.Type = translator.TypeVolunteer },
			false,
		},
		{
			"language not spoken",
			func(j *job.Job, _ *translator.Profile) { j.FromLanguage = 9 },
			false,
		},
		{
			"gender requirement",
			func(j *job.Job, _ *translator.Profile) { j.Gender = job.GenderFemale },
			false,
		},
		{
			"gender match",
			func(j *job.Job, _ *translator.Profile) { j.Gender = job.GenderMale },
			true,
		},
		{
			"certification requirement unmet",
			func(j *job.Job, _ *translator.Profile) { j.Certification = job.CertNormal },
			false,
		},
		{
			"certification satisfied by broader level",
			func(j *job.Job, _ *translator.Profile) { j.Certification = job.CertCertified },
			true,
		},
		{
			"physical-only in another town",
			func(j *job.Job, p *translator.Profile) {
				j.PhoneBooking = false
				j.PhysicalBooking = true
				j.Town = "Uppsala"
			},
			false,
		},
		{
			"physical with phone fallback ignores town",
			func(j *job.Job, p *translator.Profile) {
				j.PhysicalBooking = true
				j.Town = "Uppsala"
			},
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := memory.New()
			dir := translator.NewStaticDirectory()
			m := match.New(st, dir)

			j := baseJob()
			p := baseProfile()
			tc.mutate(j, p)
			dir.AddTranslator(p)

			got, err := m.Fits(context.Background(), j, p)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Fits() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFitsBlacklist(t *testing.T) {
	st := memory.New()
	dir := translator.NewStaticDirectory()
	m := match.New(st, dir)

	j := baseJob()
	p := baseProfile()
	dir.AddTranslator(p)
	dir.Blacklist(j.CustomerID, p.ID)

	got, err := m.Fits(context.Background(), j, p)
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("blacklisted translator should not fit")
	}
}

func TestEligible(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := translator.NewStaticDirectory()
	m := match.New(st, dir)

	j := baseJob()
	fits := baseProfile()
	wrongLang := baseProfile()
	wrongLang.ID = id.NewTranslatorID()
	wrongLang.Languages = []job.LanguageID{9}
	inactive := baseProfile()
	inactive.ID = id.NewTranslatorID()
	inactive.Active = false

	dir.AddTranslator(fits)
	dir.AddTranslator(wrongLang)
	dir.AddTranslator(inactive)

	got, err := m.Eligible(ctx, j)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != fits.ID {
		t.Fatalf("Eligible() = %d translators, want only the matching one", len(got))
	}
}

func TestPotentialJobs(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := translator.NewStaticDirectory()
	m := match.New(st, dir)

	p := baseProfile()
	dir.AddTranslator(p)

	matching := baseJob()
	otherLang := baseJob()
	otherLang.ID = id.NewJobID()
	otherLang.FromLanguage = 9
	claimed := baseJob()
	claimed.ID = id.NewJobID()
	claimed.Status = job.StatusAssigned

	for _, j := range []*job.Job{matching, otherLang, claimed} {
		if err := st.CreateJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.PotentialJobs(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != matching.ID {
		t.Fatalf("PotentialJobs() = %d jobs, want only the pending match", len(got))
	}
}
