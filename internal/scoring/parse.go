package scoring

import (
	"encoding/json"
	"strings"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/mitchellh/mapstructure"
)

// ExternalFields holds the recognised keys of an external analysis. A nil
// field was absent from the response.
type ExternalFields struct {
	OverallScore    *int     `json:"overallScore"`
	OverallFeedback *string  `json:"overallFeedback"`
	Knowledge       *int     `json:"knowledge"`
	KnowledgeDesc   *string  `json:"knowledgeDesc"`
	Body            *int     `json:"body"`
	BodyDesc        *string  `json:"bodyDesc"`
	Speaking        *int     `json:"speaking"`
	SpeakingDesc    *string  `json:"speakingDesc"`
	Structure       *int     `json:"structure"`
	StructureDesc   *string  `json:"structureDesc"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
}

var metricKeys = []string{"knowledge", "body", "speaking", "structure"}

// ParseAnalysis extracts the first balanced JSON object from raw and decodes
// it. It reports false when there is no object, the object does not decode,
// or it carries none of the recognised keys.
func ParseAnalysis(raw string) (ExternalFields, bool) {
	var fields ExternalFields

	obj := generator.ExtractJSON(raw)
	if obj == "" {
		return fields, false
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return fields, false
	}
	normalize(m)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &fields,
	})
	if err != nil {
		return fields, false
	}
	if err := dec.Decode(m); err != nil {
		return fields, false
	}
	if !fields.any() {
		return fields, false
	}
	return fields, true
}

// normalize lifts a nested "metrics" object and {score, description} metric
// objects into the flat key layout.
func normalize(m map[string]any) {
	if nested, ok := m["metrics"].(map[string]any); ok {
		for k, v := range nested {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
		delete(m, "metrics")
	}
	if v, ok := m["delivery"]; ok {
		if _, exists := m["body"]; !exists {
			m["body"] = v
		}
		delete(m, "delivery")
	}
	for _, key := range metricKeys {
		obj, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		m[key] = obj["score"]
		if desc, ok := obj["description"]; ok {
			if _, exists := m[key+"Desc"]; !exists {
				m[key+"Desc"] = desc
			}
		}
	}
}

func (f ExternalFields) any() bool {
	return f.OverallScore != nil || f.OverallFeedback != nil ||
		f.Knowledge != nil || f.KnowledgeDesc != nil ||
		f.Body != nil || f.BodyDesc != nil ||
		f.Speaking != nil || f.SpeakingDesc != nil ||
		f.Structure != nil || f.StructureDesc != nil ||
		f.Strengths != nil || f.Improvements != nil
}

// Apply overlays the parsed fields on a heuristic analysis and marks the
// result as external.
func (f ExternalFields) Apply(base domain.Analysis) domain.Analysis {
	out := base
	out.Source = domain.SourceExternal

	setScore(&out.OverallScore, f.OverallScore)
	setText(&out.OverallFeedback, f.OverallFeedback)
	setScore(&out.Metrics.Knowledge.Score, f.Knowledge)
	setText(&out.Metrics.Knowledge.Description, f.KnowledgeDesc)
	setScore(&out.Metrics.Delivery.Score, f.Body)
	setText(&out.Metrics.Delivery.Description, f.BodyDesc)
	setScore(&out.Metrics.Speaking.Score, f.Speaking)
	setText(&out.Metrics.Speaking.Description, f.SpeakingDesc)
	setScore(&out.Metrics.Structure.Score, f.Structure)
	setText(&out.Metrics.Structure.Description, f.StructureDesc)

	if list := cleanList(f.Strengths); len(list) > 0 {
		out.Strengths = list
	}
	if list := cleanList(f.Improvements); len(list) > 0 {
		out.Improvements = list
	}
	return out
}

func setScore(dst *int, v *int) {
	if v != nil {
		*dst = clamp(*v)
	}
}

func setText(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
