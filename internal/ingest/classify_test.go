package ingest

import "testing"

func TestDetectCategoryFromText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		want     string
	}{
		{
			name:     "charter document",
			text:     "Piagam komite audit ini mengatur tata kelola dan hubungan dengan dewan komisaris. Audit committee charter.",
			filename: "piagam.pdf",
			want:     "Audit Committee Charter",
		},
		{
			name:     "regulatory document",
			text:     "Peraturan OJK tentang pasar modal mewajibkan penerapan PSAK dan SPAP dalam regulasi pelaporan.",
			filename: "pojk.pdf",
			want:     "Regulatory",
		},
		{
			name:     "category from filename",
			text:     "Dokumen ini berisi ringkasan umum.",
			filename: "audit_committee_charter_2024.docx",
			want:     "Audit Committee Charter",
		},
		{
			name:     "no keyword match",
			text:     "Notulen rapat bulanan divisi pemasaran.",
			filename: "notulen.txt",
			want:     "General",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCategory(tt.text, tt.filename); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectCategoryPrefersHigherScore(t *testing.T) {
	// One "laporan" hit for Reporting versus three hits for Financial Review.
	text := "Laporan keuangan diaudit oleh auditor eksternal yang merupakan akuntan publik terdaftar."
	if got := DetectCategory(text, "audit.pdf"); got != "Financial Review" {
		t.Errorf("got %q, want Financial Review", got)
	}
}

func TestGenerateTags(t *testing.T) {
	text := "Tata kelola perusahaan menuntut pengendalian intern yang kuat serta manajemen risiko dan kepatuhan terhadap kode etik."
	got := GenerateTags(text)

	want := map[string]bool{
		"governance":       true,
		"risk":             true,
		"compliance":       true,
		"internal_control": true,
		"ethics":           true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, tag := range got {
		if !want[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
	}
}

func TestGenerateTagsEmpty(t *testing.T) {
	got := GenerateTags("dokumen tanpa istilah relevan")
	if got == nil {
		t.Fatal("tags should be an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}
