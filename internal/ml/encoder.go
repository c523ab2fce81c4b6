// Package ml implements the stockout risk models: feature engineering,
// categorical encoding, a logistic regression and a random forest classifier,
// and the JSON artifact format trained models are stored in.
package ml

import "sort"

// UnseenCategory is the encoded value for categories absent at fit time
const UnseenCategory = -1

// LabelEncoder maps category strings to integer codes.
// Classes are assigned codes in lexicographic order; categories not seen
// during fitting encode to UnseenCategory.
type LabelEncoder struct {
	Classes []string       `json:"classes"`
	codes   map[string]int `json:"-"`
}

// NewLabelEncoder creates an empty label encoder
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{codes: make(map[string]int)}
}

// Fit learns the class set from the given values
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}

	e.Classes = make([]string, 0, len(seen))
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)

	e.rebuild()
}

// Transform encodes a single value
func (e *LabelEncoder) Transform(value string) int {
	if e.codes == nil {
		e.rebuild()
	}
	if code, ok := e.codes[value]; ok {
		return code
	}
	return UnseenCategory
}

// rebuild restores the lookup map after fitting or deserialization
func (e *LabelEncoder) rebuild() {
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}
