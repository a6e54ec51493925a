// Package moderation classifies published media URLs through a third-party
// video-analysis endpoint and reduces per-frame category scores to a
// pass/fail report.
package moderation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Threshold is the fixed policy cutoff. Comparison is strict: a score of
// exactly 0.5 does not flag.
const Threshold = 0.5

// Report is the evaluated outcome of one classification. Raw holds the
// vendor payload verbatim for audit storage.
type Report struct {
	Passed     bool            `json:"passed" bson:"passed"`
	Violations []string        `json:"violations" bson:"violations"`
	Raw        json.RawMessage `json:"raw,omitempty" bson:"raw,omitempty"`
}

// EmptyReport is stored when moderation ran in degraded mode (no credentials
// configured): the gate is skipped and the audit record carries an empty
// payload.
func EmptyReport() *Report {
	return &Report{Passed: true, Violations: []string{}, Raw: json.RawMessage("{}")}
}

type classifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Frames []frame `json:"frames"`
	} `json:"data"`
}

// frame splits the vendor's per-frame object into positional info and the
// per-category score payloads, which vary in shape by model.
type frame struct {
	Position   float64
	Categories map[string]json.RawMessage
}

func (f *frame) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Categories = make(map[string]json.RawMessage)
	for key, value := range raw {
		if key == "info" {
			var info struct {
				Position float64 `json:"position"`
			}
			if err := json.Unmarshal(value, &info); err != nil {
				return fmt.Errorf("malformed frame info: %w", err)
			}
			f.Position = info.Position
			continue
		}
		f.Categories[key] = value
	}
	return nil
}

// evaluate scans every frame of the response: for each requested category,
// every numeric sub-score (including nested sub-class maps such as weapon or
// gore types) is compared against the threshold independently.
func evaluate(resp *classifyResponse, models []string) []string {
	violations := []string{}
	for _, fr := range resp.Data.Frames {
		for _, model := range models {
			payload, ok := fr.Categories[model]
			if !ok {
				continue
			}
			for _, sub := range collectScores(model, payload) {
				if sub.score > Threshold {
					violations = append(violations, fmt.Sprintf(
						"%s score %.2f exceeds threshold at frame position %.1fs",
						sub.label, sub.score, fr.Position,
					))
				}
			}
		}
	}
	return violations
}

type subScore struct {
	label string
	score float64
}

// collectScores walks a category payload and returns every numeric leaf with
// its dotted path. Payload shapes range from a bare number to nested
// sub-class maps.
func collectScores(label string, payload json.RawMessage) []subScore {
	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil
	}
	return walkScores(label, value)
}

func walkScores(label string, value interface{}) []subScore {
	switch v := value.(type) {
	case float64:
		return []subScore{{label: label, score: v}}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var scores []subScore
		for _, k := range keys {
			scores = append(scores, walkScores(label+"."+k, v[k])...)
		}
		return scores
	default:
		// strings, booleans and arrays carry no score
		return nil
	}
}
