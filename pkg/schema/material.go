package schema

// MaterialSchema returns the schema a fully processed material must satisfy
// before it is routed to the complete stream. It requires the identifying
// fields, the provider sub-object and the accreted material metadata (raw
// text plus the concept list; an empty concept list is acceptable, a missing
// one is not).
func MaterialSchema() *Schema {
	return &Schema{
		Description: "The OER material object",
		Types:       []Type{TypeObject},
		Properties: map[string]*Schema{
			"title": {
				Description: "The title of the OER material or course",
				Types:       []Type{TypeString},
			},
			"description": {
				Description: "A short description of the OER material or course",
				Types:       []Type{TypeString},
			},
			"provideruri": {
				Description: "The url of provider where the OER material can be found",
				Types:       []Type{TypeString},
			},
			"materialurl": {
				Description: "The source/direct url of the OER material",
				Types:       []Type{TypeString},
			},
			"author": {
				Description: "The author(s) of the OER material",
				Types:       []Type{TypeString},
			},
			"language": {
				Description: "The origin language of the OER material",
				Types:       []Type{TypeString},
			},
			"datecreated": {
				Description: "The date when the OER material was created",
				Types:       []Type{TypeString},
			},
			"dateretrieved": {
				Description: "The date when the OER material was retrieved by the platform",
				Types:       []Type{TypeString},
			},
			"type": {
				Description: "The extension and type of the OER material",
				Types:       []Type{TypeObject, TypeString, TypeNull},
			},
			"providermetadata": {
				Description: "The provider metadata",
				Types:       []Type{TypeObject},
				Properties: map[string]*Schema{
					"title": {
						Description: "The name of the OER provider",
						Types:       []Type{TypeString},
					},
					"url": {
						Description: "The url where the OER provider is found",
						Types:       []Type{TypeString},
					},
				},
				Required: []string{"title", "url"},
			},
			"materialmetadata": {
				Description: "The material metadata extracted by the platform",
				Types:       []Type{TypeObject},
				Properties: map[string]*Schema{
					"rawText": {
						Description: "The raw content of the OER material in the origin language",
						Types:       []Type{TypeString},
					},
					"dfxp": {
						Description: "The dfxp file associated with the video OER material",
						Types:       []Type{TypeString},
					},
					"wikipediaConcepts": {
						Description: "The concepts extracted from the OER material",
						Types:       []Type{TypeArray},
						Items: &Schema{
							Description: "A single concept annotation",
							Types:       []Type{TypeObject},
							Properties: map[string]*Schema{
								"name":       {Types: []Type{TypeString}},
								"uri":        {Types: []Type{TypeString}},
								"lang":       {Types: []Type{TypeString}},
								"supportLen": {Types: []Type{TypeNumber}},
								"pageRank":   {Types: []Type{TypeNumber}},
								"cosine":     {Types: []Type{TypeNumber}},
							},
							Required: []string{"name", "uri", "lang", "supportLen", "pageRank", "cosine"},
						},
					},
					"transcriptions": {
						Description: "The transcriptions acquired from the transcription platform",
						Types:       []Type{TypeObject},
					},
				},
				Required: []string{"rawText", "wikipediaConcepts"},
			},
			"license": {
				Description: "The OER material license",
				Types:       []Type{TypeString},
			},
		},
		Required: []string{
			"title",
			"provideruri",
			"materialurl",
			"language",
			"providermetadata",
			"materialmetadata",
		},
	}
}
