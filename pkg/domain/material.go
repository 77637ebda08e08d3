package domain

// Concept is a single concept annotation extracted from the material's raw text.
type Concept struct {
	Name       string  `json:"name" bson:"name"`
	URI        string  `json:"uri" bson:"uri"`
	Lang       string  `json:"lang" bson:"lang"`
	SupportLen float64 `json:"supportLen" bson:"supportLen"`
	PageRank   float64 `json:"pageRank" bson:"pageRank"`
	Cosine     float64 `json:"cosine" bson:"cosine"`
}

// ProviderMetadata describes the provider the material was harvested from.
type ProviderMetadata struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

// Clone returns a copy of the provider metadata.
func (p *ProviderMetadata) Clone() *ProviderMetadata {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// MaterialMetadata holds the metadata accreted by the pipeline stages.
// Stages only ever add to it; nothing downstream removes a populated field.
type MaterialMetadata struct {
	// RawText is the material content in its origin language.
	RawText string `json:"rawText" bson:"rawText"`

	// DFXP is the caption file associated with video materials, when present.
	DFXP string `json:"dfxp,omitempty" bson:"dfxp,omitempty"`

	// WikipediaConcepts are the concepts extracted from the raw text.
	// A nil slice means the concept-tagging stage has not run yet; an empty
	// slice means it ran and found nothing. Validation distinguishes the two.
	WikipediaConcepts []Concept `json:"wikipediaConcepts" bson:"wikipediaConcepts"`

	// Transcriptions maps language code -> format -> text, as returned by the
	// transcription platform.
	Transcriptions map[string]map[string]string `json:"transcriptions,omitempty" bson:"transcriptions,omitempty"`
}

// Material is the unit of work flowing through the preprocessing pipeline.
// The material URL is its stable identity.
type Material struct {
	Title         string            `json:"title" bson:"title"`
	Description   string            `json:"description,omitempty" bson:"description,omitempty"`
	ProviderURI   string            `json:"provideruri" bson:"provideruri"`
	MaterialURL   string            `json:"materialurl" bson:"materialurl"`
	Author        string            `json:"author,omitempty" bson:"author,omitempty"`
	Language      string            `json:"language" bson:"language"`
	Type          string            `json:"type,omitempty" bson:"type,omitempty"`
	Mimetype      string            `json:"mimetype,omitempty" bson:"mimetype,omitempty"`
	DateCreated   string            `json:"datecreated,omitempty" bson:"datecreated,omitempty"`
	DateRetrieved string            `json:"dateretrieved,omitempty" bson:"dateretrieved,omitempty"`
	ProviderToken string            `json:"providertoken,omitempty" bson:"providertoken,omitempty"`
	License       string            `json:"license,omitempty" bson:"license,omitempty"`
	Provider      *ProviderMetadata `json:"providermetadata,omitempty" bson:"providermetadata,omitempty"`
	Metadata      *MaterialMetadata `json:"materialmetadata,omitempty" bson:"materialmetadata,omitempty"`

	// Message is the failure message set by a stage that diverts the material
	// to the partial stream. At most one stage ever sets it.
	Message string `json:"message,omitempty" bson:"message,omitempty"`
}

// EnsureMetadata initializes the metadata sub-object if it is missing.
func (m *Material) EnsureMetadata() *MaterialMetadata {
	if m.Metadata == nil {
		m.Metadata = &MaterialMetadata{}
	}
	return m.Metadata
}

// Clone returns a deep copy of the material. The topology clones when a stream
// has more than one subscriber so that no two stages share mutable state.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Provider != nil {
		provider := *m.Provider
		clone.Provider = &provider
	}
	if m.Metadata != nil {
		meta := *m.Metadata
		if m.Metadata.WikipediaConcepts != nil {
			meta.WikipediaConcepts = make([]Concept, len(m.Metadata.WikipediaConcepts))
			copy(meta.WikipediaConcepts, m.Metadata.WikipediaConcepts)
		}
		if m.Metadata.Transcriptions != nil {
			meta.Transcriptions = make(map[string]map[string]string, len(m.Metadata.Transcriptions))
			for lang, formats := range m.Metadata.Transcriptions {
				inner := make(map[string]string, len(formats))
				for format, text := range formats {
					inner[format] = text
				}
				meta.Transcriptions[lang] = inner
			}
		}
		clone.Metadata = &meta
	}
	return &clone
}
