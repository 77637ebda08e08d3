package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oer-preproc/pkg/domain"
)

func validMaterial() *domain.Material {
	return &domain.Material{
		Title:       "Introduction to Machine Learning",
		ProviderURI: "https://provider.example.org",
		MaterialURL: "https://provider.example.org/ml-intro",
		Language:    "en",
		Provider: &domain.ProviderMetadata{
			Title: "Example Provider",
			URL:   "https://provider.example.org",
		},
		Metadata: &domain.MaterialMetadata{
			RawText: "Machine learning is the study of algorithms.",
			WikipediaConcepts: []domain.Concept{{
				Name:       "Machine learning",
				URI:        "https://en.wikipedia.org/wiki/Machine_learning",
				Lang:       "en",
				SupportLen: 4,
				PageRank:   0.9,
				Cosine:     0.8,
			}},
		},
	}
}

func TestValidateStruct_CompleteMaterialPasses(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.ValidateStruct(validMaterial(), MaterialSchema()))
}

func TestValidateStruct_MissingConceptsFails(t *testing.T) {
	v := NewValidator()

	m := validMaterial()
	m.Metadata.WikipediaConcepts = nil
	assert.False(t, v.ValidateStruct(m, MaterialSchema()),
		"a material whose concept list was never populated must fail")
}

func TestValidateStruct_EmptyConceptListPasses(t *testing.T) {
	v := NewValidator()

	m := validMaterial()
	m.Metadata.WikipediaConcepts = []domain.Concept{}
	assert.True(t, v.ValidateStruct(m, MaterialSchema()),
		"an empty concept list means tagging ran and found nothing")
}

func TestValidateStruct_MissingRequiredTopLevelFields(t *testing.T) {
	v := NewValidator()
	s := MaterialSchema()

	cases := []struct {
		name   string
		mutate func(*domain.Material)
	}{
		{"no provider metadata", func(m *domain.Material) { m.Provider = nil }},
		{"no material metadata", func(m *domain.Material) { m.Metadata = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMaterial()
			tc.mutate(m)
			assert.False(t, v.ValidateStruct(m, s))
		})
	}
}

func TestValidate_RequiredFieldPresence(t *testing.T) {
	v := NewValidator()
	s := &Schema{
		Types: []Type{TypeObject},
		Properties: map[string]*Schema{
			"name": {Types: []Type{TypeString}},
		},
		Required: []string{"name"},
	}

	assert.True(t, v.Validate(map[string]any{"name": "a"}, s))
	assert.False(t, v.Validate(map[string]any{}, s))
	assert.False(t, v.Validate(map[string]any{"name": 42.0}, s))
}

func TestValidate_MultiTypeField(t *testing.T) {
	v := NewValidator()
	s := &Schema{Types: []Type{TypeObject, TypeString, TypeNull}}

	assert.True(t, v.Validate("pdf", s))
	assert.True(t, v.Validate(map[string]any{"ext": "pdf"}, s))
	assert.True(t, v.Validate(nil, s))
	assert.False(t, v.Validate(3.0, s))
}

func TestValidate_ArrayItems(t *testing.T) {
	v := NewValidator()
	s := &Schema{
		Types: []Type{TypeArray},
		Items: &Schema{
			Types:    []Type{TypeObject},
			Required: []string{"uri"},
		},
	}

	assert.True(t, v.Validate([]any{map[string]any{"uri": "x"}}, s))
	assert.True(t, v.Validate([]any{}, s))
	assert.False(t, v.Validate([]any{map[string]any{"name": "x"}}, s),
		"one invalid item fails the whole array")
	assert.False(t, v.Validate("not an array", s))
}

func TestValidate_OptionalFieldsMayBeAbsent(t *testing.T) {
	v := NewValidator()

	m := validMaterial()
	m.Description = ""
	m.Author = ""
	m.License = ""
	require.True(t, v.ValidateStruct(m, MaterialSchema()),
		"optional fields absent from the document must not fail validation")
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Validate(map[string]any{"anything": 1.0}, nil))
}
