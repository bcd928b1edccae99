package model

import "fmt"

// Expert agent keys. The set is closed: routing output naming anything else
// is skipped at request time, and configuration naming anything else fails at
// startup via ValidateExpertKey.
const (
	ExpertCharter         = "charter_expert"
	ExpertPlanning        = "planning_expert"
	ExpertFinancialReview = "financial_review_expert"
	ExpertRegulatory      = "regulatory_expert"
	ExpertBanking         = "banking_expert"
	ExpertReporting       = "reporting_expert"
)

// DefaultExpertKey is the deterministic routing fallback.
const DefaultExpertKey = ExpertCharter

// ExpertProfile is the static persona configuration for one expert agent.
type ExpertProfile struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Expertise   []string `json:"expertise"`
}

var expertProfiles = []ExpertProfile{
	{
		Key:         ExpertCharter,
		Name:        "Audit Committee Charter Expert",
		Description: "Expert dalam penyusunan Audit Committee Charter dan Internal Audit Charter",
		Expertise: []string{
			"Struktur dan isi Audit Committee Charter",
			"Internal Audit Charter",
			"Best practices governance",
			"Hubungan Komite Audit dengan Board dan Management",
		},
	},
	{
		Key:         ExpertPlanning,
		Name:        "Audit Planning & Execution Expert",
		Description: "Expert dalam perencanaan dan pelaksanaan audit",
		Expertise: []string{
			"Audit planning process",
			"Risk assessment",
			"Audit program development",
			"Review kinerja fungsi audit intern",
		},
	},
	{
		Key:         ExpertFinancialReview,
		Name:        "Financial Reporting Review Expert",
		Description: "Expert dalam review laporan keuangan dan efektivitas akuntan publik",
		Expertise: []string{
			"Review laporan keuangan",
			"Efektivitas dan objektivitas akuntan publik",
			"Proses penunjukan auditor eksternal",
			"Quality control audit eksternal",
		},
	},
	{
		Key:         ExpertRegulatory,
		Name:        "Regulatory Compliance Expert",
		Description: "Expert dalam peraturan dan standar terkait Komite Audit",
		Expertise: []string{
			"UU Pasar Modal",
			"PSAK (Pernyataan Standar Akuntansi Keuangan)",
			"SPAP (Standar Profesional Akuntan Publik)",
			"OJK regulations",
			"Standarisasi Komite Audit",
		},
	},
	{
		Key:         ExpertBanking,
		Name:        "Banking Audit Committee Expert",
		Description: "Expert khusus Komite Audit di sektor perbankan",
		Expertise: []string{
			"Peraturan BI/OJK untuk perbankan",
			"Peran Komite Audit di bank",
			"Risk management banking",
			"Compliance banking sector",
		},
	},
	{
		Key:         ExpertReporting,
		Name:        "Reporting & Disclosure Expert",
		Description: "Expert dalam pelaporan dan pengungkapan kegiatan Komite Audit",
		Expertise: []string{
			"Penyusunan laporan periodik",
			"Disclosure dalam annual report",
			"Communication dengan stakeholders",
			"Transparency dan accountability",
		},
	},
}

var expertIndex = func() map[string]ExpertProfile {
	m := make(map[string]ExpertProfile, len(expertProfiles))
	for _, p := range expertProfiles {
		m[p.Key] = p
	}
	return m
}()

// ExpertProfiles returns all profiles in their canonical order.
func ExpertProfiles() []ExpertProfile {
	out := make([]ExpertProfile, len(expertProfiles))
	copy(out, expertProfiles)
	return out
}

// ExpertByKey looks up a profile; ok is false for unknown keys.
func ExpertByKey(key string) (ExpertProfile, bool) {
	p, ok := expertIndex[key]
	return p, ok
}

// ValidateExpertKey returns an error for keys outside the closed expert set.
func ValidateExpertKey(key string) error {
	if _, ok := expertIndex[key]; !ok {
		return fmt.Errorf("unknown expert key %q", key)
	}
	return nil
}
