package ml

import (
	"encoding/json"
	"fmt"
)

// artifactFormatVersion guards against loading artifacts written by an
// incompatible build
const artifactFormatVersion = 1

// artifact is the on-disk envelope for a trained model
type artifact struct {
	FormatVersion int      `json:"format_version"`
	FeatureNames  []string `json:"feature_names"`
	Model         *Model   `json:"model"`
}

// EncodeArtifact serializes a trained model to its JSON artifact form
func EncodeArtifact(model *Model) ([]byte, error) {
	if model == nil {
		return nil, fmt.Errorf("ml: cannot encode nil model")
	}
	return json.Marshal(artifact{
		FormatVersion: artifactFormatVersion,
		FeatureNames:  FeatureNames(),
		Model:         model,
	})
}

// DecodeArtifact restores a trained model from its JSON artifact form
func DecodeArtifact(data []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("ml: decode artifact: %w", err)
	}
	if a.FormatVersion != artifactFormatVersion {
		return nil, fmt.Errorf("ml: unsupported artifact format version %d", a.FormatVersion)
	}
	if a.Model == nil || a.Model.Features == nil {
		return nil, fmt.Errorf("ml: artifact is missing the model payload")
	}

	// Restore lookup maps dropped during serialization
	for _, enc := range []*LabelEncoder{
		a.Model.Features.CategoryEncoder,
		a.Model.Features.SubcategoryEncoder,
		a.Model.Features.PriceBandEncoder,
		a.Model.Features.DemandBandEncoder,
	} {
		if enc != nil {
			enc.rebuild()
		}
	}

	return a.Model, nil
}
