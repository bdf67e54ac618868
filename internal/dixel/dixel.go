package dixel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Well-known tag and meta keys.
const (
	TagAccessionNumber  = "AccessionNumber"
	TagModality         = "Modality"
	TagPatientName      = "PatientName"
	TagPatientID        = "PatientID"
	TagPatientBirthDate = "PatientBirthDate"
	TagPatientSex       = "PatientSex"
	TagStudyDescription = "StudyDescription"
	TagStudyInstanceUID = "StudyInstanceUID"
	TagStudyDate        = "StudyDate"
	TagStudyTime        = "StudyTime"

	MetaBodyParts     = "BodyParts"
	MetaCPTCodes      = "CPTCodes"
	MetaPatientAge    = "PatientAge"
	MetaPatientStatus = "PatientStatus"
)

// View selects how much of a study a source retrieval should materialize.
type View int

const (
	// ViewTags retrieves header data only.
	ViewTags View = iota
	// ViewFile retrieves the raw binary payload as well.
	ViewFile
)

func (v View) String() string {
	switch v {
	case ViewFile:
		return "file"
	default:
		return "tags"
	}
}

// Dixel is one study moving through the pipeline.
type Dixel struct {
	Tags   map[string]string
	Meta   map[string]string
	Report *Report
	File   []byte
}

// New seeds a Dixel from a worklist accession identifier.
func New(accession string) *Dixel {
	return &Dixel{
		Tags: map[string]string{TagAccessionNumber: strings.TrimSpace(accession)},
		Meta: map[string]string{},
	}
}

// Accession returns the stable external key identifying the study.
func (d *Dixel) Accession() string {
	return d.Tags[TagAccessionNumber]
}

// Filename derives the destination key for the study. It depends only on the
// accession identifier so the idempotency probe gives the same answer before
// and after metadata resolution, and regardless of payload presence.
func (d *Dixel) Filename() string {
	sum := sha256.Sum224([]byte(d.Accession()))
	return hex.EncodeToString(sum[:])[:16] + ".dcm"
}

// ShamID returns the anonymized accession identifier recorded in the key map.
func (d *Dixel) ShamID() string {
	sum := sha256.Sum224([]byte("sham:" + d.Accession()))
	return hex.EncodeToString(sum[:])[:16]
}

// Query builds the minimal identifying query used for metadata resolution:
// the accession number plus blanked identity fields the proxy echoes back.
func (d *Dixel) Query() map[string]string {
	return map[string]string{
		TagPatientName:      "",
		TagPatientID:        "",
		TagPatientBirthDate: "",
		TagPatientSex:       "",
		TagAccessionNumber:  d.Accession(),
		TagStudyDescription: "",
		TagStudyInstanceUID: "",
		TagStudyDate:        "",
		TagStudyTime:        "",
	}
}

// MergeTags folds resolved tags into the study, overwriting existing values.
func (d *Dixel) MergeTags(tags map[string]string) {
	if d.Tags == nil {
		d.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		d.Tags[k] = v
	}
}

var titleCaser = cases.Title(language.English)

// NormalizeMeta canonicalizes derived metadata labels so key map rows agree
// across upstream enrichment sources (e.g. "CHEST ABDOMEN" -> "Chest Abdomen").
func (d *Dixel) NormalizeMeta() {
	for _, key := range []string{MetaBodyParts, MetaPatientStatus} {
		if value, ok := d.Meta[key]; ok {
			d.Meta[key] = titleCaser.String(strings.ToLower(strings.TrimSpace(value)))
		}
	}
}

func (d *Dixel) String() string {
	return fmt.Sprintf("Dixel(%s)", d.Accession())
}
