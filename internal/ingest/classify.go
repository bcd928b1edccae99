package ingest

import "strings"

type categoryRule struct {
	name     string
	keywords []string
}

// Ordered so ties resolve to the earlier category.
var categoryRules = []categoryRule{
	{"Audit Committee Charter", []string{"charter", "komite audit", "audit committee", "tata kelola"}},
	{"Audit Planning", []string{"perencanaan audit", "audit planning", "risk assessment", "program audit"}},
	{"Financial Review", []string{"laporan keuangan", "financial statement", "auditor eksternal", "akuntan publik"}},
	{"Regulatory", []string{"peraturan", "regulasi", "ojk", "pasar modal", "psak", "spap"}},
	{"Banking", []string{"perbankan", "bank", "bi", "likuiditas", "kredit"}},
	{"Reporting", []string{"laporan", "disclosure", "annual report", "pengungkapan"}},
}

type tagRule struct {
	tag      string
	keywords []string
}

var tagRules = []tagRule{
	{"governance", []string{"governance", "tata kelola", "pengelolaan"}},
	{"risk", []string{"risk", "risiko", "risk management"}},
	{"compliance", []string{"compliance", "kepatuhan", "regulasi"}},
	{"audit", []string{"audit", "auditor", "pemeriksaan"}},
	{"financial", []string{"keuangan", "financial", "laporan keuangan"}},
	{"internal_control", []string{"pengendalian intern", "internal control"}},
	{"ethics", []string{"etika", "ethics", "kode etik"}},
	{"transparency", []string{"transparansi", "transparency", "keterbukaan"}},
}

// DetectCategory scores each category by keyword hits in the document text
// or filename and returns the best match, or "General" when nothing hits.
func DetectCategory(text, filename string) string {
	textLower := strings.ToLower(text)
	filenameLower := strings.ToLower(filename)

	best := "General"
	bestScore := 0
	for _, rule := range categoryRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(textLower, kw) || strings.Contains(filenameLower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = rule.name
			bestScore = score
		}
	}
	return best
}

// GenerateTags returns the content tags whose keywords appear in the text.
func GenerateTags(text string) []string {
	textLower := strings.ToLower(text)

	tags := []string{}
	for _, rule := range tagRules {
		for _, kw := range rule.keywords {
			if strings.Contains(textLower, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}
