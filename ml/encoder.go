package ml

import (
	"errors"
	"fmt"
)

var ErrUnseenLabel = errors.New("previously unseen label")

// LabelEncoder maps a fitted set of category strings to integer codes. The
// code of a class is its position in Classes.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

type labelEncoderArtifact struct {
	Classes []string `json:"classes" yaml:"classes"`
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, ok := index[class]; ok {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		index[class] = i
	}
	return &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

func LoadLabelEncoder(path, charset string) (*LabelEncoder, error) {
	var artifact labelEncoderArtifact
	if err := decodeArtifact(path, charset, &artifact); err != nil {
		return nil, err
	}
	return NewLabelEncoder(artifact.Classes)
}

func (e *LabelEncoder) Encode(value string) (int, error) {
	code, ok := e.index[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnseenLabel, value)
	}
	return code, nil
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}
