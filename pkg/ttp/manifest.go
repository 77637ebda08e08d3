// Package ttp talks to an external transcription and translation platform.
// It covers the full lifecycle of a text job: manifest construction with
// pivot-language translation paths, archive packaging, submission, status
// polling with a deadline, and retrieval of per-language outputs.
package ttp

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPivot is the intermediate language used for two-hop translation
// paths between non-pivot languages.
const DefaultPivot = "en"

// PathHop is one hop of a translation path.
type PathHop struct {
	L string `json:"l"`
}

// LangSpec configures one requested output language. A language translated
// through the pivot carries a two-hop translation path; a direct language
// carries none.
type LangSpec struct {
	TLPath []PathHop `json:"tlpath,omitempty"`
}

// Document describes one submitted file inside a job manifest.
type Document struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	FileFormat string `json:"fileformat"`
	MD5        string `json:"md5"`
}

// Manifest is the job configuration submitted alongside the packaged text.
type Manifest struct {
	Language       string              `json:"language"`
	Documents      []Document          `json:"documents"`
	RequestedLangs map[string]LangSpec `json:"requested_langs"`
	TestMode       bool                `json:"test_mode"`
}

// TranslationPlan builds the requested-languages map for a material in the
// given origin language. The origin language and the pivot language
// translate directly; every other configured language is reached through a
// two-hop path via the pivot. When the origin is the pivot itself, every
// language translates directly.
func TranslationPlan(origin, pivot string, languages []string) map[string]LangSpec {
	if pivot == "" {
		pivot = DefaultPivot
	}
	plan := make(map[string]LangSpec, len(languages))
	for _, lang := range languages {
		spec := LangSpec{}
		if origin != pivot && lang != pivot && lang != origin {
			spec.TLPath = []PathHop{{L: pivot}, {L: lang}}
		}
		plan[lang] = spec
	}
	return plan
}

// NewExternalID generates a collision-resistant job identifier: a random
// token with a time component, safe to use as a scratch-directory name.
func NewExternalID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return token + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// Checksum returns the md5 hex digest of the raw text. Byte-identical
// content always yields the same checksum, which lets the platform skip
// redundant reprocessing.
func Checksum(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// special-case transliterations that decomposition alone cannot produce.
var transliterations = strings.NewReplacer(
	"ä", "ae", "Ä", "AE",
	"ö", "oe", "Ö", "OE",
	"ü", "ue", "Ü", "UE",
	"æ", "ae", "Æ", "AE",
	"ø", "oe", "Ø", "OE",
	"ß", "SS",
	"ð", "dh", "Ð", "Dh",
	"þ", "th", "Þ", "Th",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
)

// NormalizeTitle replaces accented characters in a document title with
// their closest ascii equivalents, since the platform rejects non-ascii
// manifest titles.
func NormalizeTitle(title string) string {
	title = transliterations.Replace(title)
	stripped, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), title)
	if err != nil {
		return title
	}
	return stripped
}
