package dixel_test

import (
	"testing"

	"diana/internal/dixel"
)

func TestFilenameDeterministic(t *testing.T) {
	a := dixel.New("ACC001")
	b := dixel.New("ACC001")
	if a.Filename() != b.Filename() {
		t.Fatalf("filenames differ: %q vs %q", a.Filename(), b.Filename())
	}

	// Payload presence and resolved tags must not change the key.
	b.File = []byte{0x44, 0x49, 0x43, 0x4d}
	b.MergeTags(map[string]string{dixel.TagStudyInstanceUID: "1.2.3.4"})
	if a.Filename() != b.Filename() {
		t.Fatal("filename changed after payload/tag merge")
	}

	if a.Filename() == dixel.New("ACC002").Filename() {
		t.Fatal("distinct accessions should map to distinct filenames")
	}
}

func TestShamIDDiffersFromAccession(t *testing.T) {
	d := dixel.New("ACC001")
	if d.ShamID() == d.Accession() {
		t.Fatal("sham id must not expose the accession")
	}
	if d.ShamID() != dixel.New("ACC001").ShamID() {
		t.Fatal("sham id must be deterministic")
	}
}

func TestQueryBlanksIdentityFields(t *testing.T) {
	d := dixel.New("ACC123")
	d.MergeTags(map[string]string{dixel.TagPatientName: "DOE^JANE"})
	q := d.Query()
	if q[dixel.TagAccessionNumber] != "ACC123" {
		t.Fatalf("query accession: %q", q[dixel.TagAccessionNumber])
	}
	for _, key := range []string{
		dixel.TagPatientName, dixel.TagPatientID, dixel.TagPatientBirthDate,
		dixel.TagPatientSex, dixel.TagStudyDescription, dixel.TagStudyInstanceUID,
		dixel.TagStudyDate, dixel.TagStudyTime,
	} {
		if q[key] != "" {
			t.Fatalf("expected %s blanked, got %q", key, q[key])
		}
	}
}

func TestMergeTagsOverwrites(t *testing.T) {
	d := dixel.New("ACC1")
	d.MergeTags(map[string]string{dixel.TagModality: "CR"})
	d.MergeTags(map[string]string{dixel.TagModality: "CT", dixel.TagPatientSex: "F"})
	if d.Tags[dixel.TagModality] != "CT" || d.Tags[dixel.TagPatientSex] != "F" {
		t.Fatalf("unexpected tags after merge: %#v", d.Tags)
	}
}

func TestNormalizeMeta(t *testing.T) {
	d := dixel.New("ACC1")
	d.Meta[dixel.MetaBodyParts] = "  CHEST ABDOMEN "
	d.Meta[dixel.MetaPatientStatus] = "inpatient"
	d.NormalizeMeta()
	if d.Meta[dixel.MetaBodyParts] != "Chest Abdomen" {
		t.Fatalf("body parts: %q", d.Meta[dixel.MetaBodyParts])
	}
	if d.Meta[dixel.MetaPatientStatus] != "Inpatient" {
		t.Fatalf("status: %q", d.Meta[dixel.MetaPatientStatus])
	}
}

func TestRadcat(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain marker", "IMPRESSION: stable. RADCAT3", "3", false},
		{"spaced marker", "Category RADCAT: 5", "5", false},
		{"lower case", "radcat 1 assigned", "1", false},
		{"missing marker", "no categorization present", "", true},
		{"empty text", "   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &dixel.Report{Text: tc.text}
			got, err := r.Radcat()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Radcat failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNilReportRadcat(t *testing.T) {
	var r *dixel.Report
	if _, err := r.Radcat(); err == nil {
		t.Fatal("nil report should fail to categorize")
	}
}
