package docingest

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aqlhr/ingest/internal/domain"
)

// docTypeKeyword maps a text marker to a canonical document type. Arabic
// markers cover documents issued without English labels. Earlier entries
// win when several markers appear.
type docTypeKeyword struct {
	marker  string
	docType string
}

var docTypeKeywords = []docTypeKeyword{
	{"work permit", "work_permit"},
	{"رخصة عمل", "work_permit"},
	{"iqama", "iqama"},
	{"residence permit", "iqama"},
	{"إقامة", "iqama"},
	{"employment contract", "contract"},
	{"عقد عمل", "contract"},
	{"gosi certificate", "gosi_certificate"},
	{"التأمينات الاجتماعية", "gosi_certificate"},
	{"salary certificate", "salary_certificate"},
	{"شهادة راتب", "salary_certificate"},
	{"visa", "visa"},
	{"تأشيرة", "visa"},
	{"medical insurance", "insurance"},
	{"تأمين طبي", "insurance"},
	{"saudization certificate", "saudization_certificate"},
	{"نطاقات", "saudization_certificate"},
}

// portalMarkers become tags when mentioned anywhere in the text.
var portalMarkers = []string{"qiwa", "gosi", "absher", "mol", "mudad", "muqeem"}

var (
	// Iqama numbers are ten digits starting with 2; national ids are ten
	// digits starting with 1.
	iqamaPattern      = regexp.MustCompile(`\b2\d{9}\b`)
	nationalIDPattern = regexp.MustCompile(`\b1\d{9}\b`)

	datePattern = regexp.MustCompile(`\b(?:\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}/\d{1,2}/\d{4})\b`)
)

var metadataDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
}

// ExtractMetadata derives document metadata from extracted text with
// plain heuristics. It never fails; an empty result means nothing was
// recognized.
func ExtractMetadata(text, storagePath string) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{
		Title:        extractTitle(text, storagePath),
		IqamaNumbers: dedupe(iqamaPattern.FindAllString(text, -1)),
		NationalIDs:  dedupe(nationalIDPattern.FindAllString(text, -1)),
	}

	lower := strings.ToLower(text)
	for _, kw := range docTypeKeywords {
		if strings.Contains(lower, kw.marker) {
			meta.DocType = kw.docType
			break
		}
	}

	for _, marker := range portalMarkers {
		if strings.Contains(lower, marker) {
			meta.Tags = append(meta.Tags, marker)
		}
	}
	if meta.DocType != "" {
		meta.Tags = append(meta.Tags, meta.DocType)
	}

	meta.EffectiveDate, meta.ExpiryDate = extractDates(text)
	return meta
}

// extractTitle takes the first non-empty text line, falling back to the
// file name without its extension.
func extractTitle(text, storagePath string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 120 {
			line = line[:120]
		}
		return line
	}
	base := filepath.Base(storagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractDates assigns the first two distinct dates found in the text,
// in order of appearance, as the effective and expiry dates.
func extractDates(text string) (*time.Time, *time.Time) {
	var found []time.Time
	for _, match := range datePattern.FindAllString(text, -1) {
		parsed, ok := parseDate(match)
		if !ok {
			continue
		}
		if len(found) > 0 && parsed.Equal(found[0]) {
			continue
		}
		found = append(found, parsed)
		if len(found) == 2 {
			break
		}
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return &found[0], &found[1]
	}
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range metadataDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
