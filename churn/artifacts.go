package churn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"telcochurn/ml"
)

type Encoder interface {
	Encode(value string) (int, error)
}

type Scaler interface {
	Transform(values []float64) ([]float64, error)
}

type Classifier interface {
	Predict(features []float64) (int, float64, error)
}

// Artifacts is the fitted state used at inference time. It is never modified
// after load, so one value can serve concurrent requests.
type Artifacts struct {
	Model    Classifier
	Scaler   Scaler
	Encoders map[Field]Encoder
	Info     ArtifactInfo
}

// ArtifactInfo describes what was loaded, for startup logs and the check command.
type ArtifactInfo struct {
	ModelType    string
	NumFeatures  int
	ScalerKind   string
	Vocabularies map[Field][]string
	Files        []string
}

func (a *Artifacts) validate() error {
	if a.Model == nil {
		return errors.New("model is not set")
	}
	if a.Scaler == nil {
		return errors.New("scaler is not set")
	}
	for _, field := range CategoricalFields {
		if a.Encoders[field] == nil {
			return fmt.Errorf("encoder for %s is not set", field)
		}
	}
	return nil
}

// Loader produces the artifacts a Predictor runs on.
type Loader interface {
	Load() (*Artifacts, error)
}

// ArtifactPaths locates serialized artifacts on disk.
type ArtifactPaths struct {
	ModelPath   string
	ScalerPath  string
	EncodersDir string
	Charset     string
}

// StartupLoadError means the service cannot serve: an artifact is missing,
// unreadable or incompatible.
type StartupLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *StartupLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s artifact: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s artifact from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *StartupLoadError) Unwrap() error {
	return e.Err
}

var errPathNotConfigured = errors.New("path not configured")

// encoderExtensions are tried in order after the bare file name.
var encoderExtensions = []string{".json", ".yaml", ".yml"}

// EncoderPath resolves the encoder file for field inside dir.
func EncoderPath(dir string, field Field) (string, error) {
	base := filepath.Join(dir, string(field)+"_encoder")
	candidates := make([]string, 0, len(encoderExtensions)+1)
	for _, ext := range encoderExtensions {
		candidates = append(candidates, base+ext)
	}
	candidates = append(candidates, base)
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no encoder file %s{%s}: %w", base, "json,yaml,yml", os.ErrNotExist)
}

// FileLoader loads artifacts from the file system.
type FileLoader struct {
	Paths ArtifactPaths
}

func NewFileLoader(paths ArtifactPaths) *FileLoader {
	return &FileLoader{Paths: paths}
}

func (l *FileLoader) Load() (*Artifacts, error) {
	paths := l.Paths
	if paths.ModelPath == "" {
		return nil, &StartupLoadError{Artifact: "model", Err: errPathNotConfigured}
	}
	if paths.ScalerPath == "" {
		return nil, &StartupLoadError{Artifact: "scaler", Err: errPathNotConfigured}
	}
	if paths.EncodersDir == "" {
		return nil, &StartupLoadError{Artifact: "encoders", Err: errPathNotConfigured}
	}

	model, err := ml.LoadModel(paths.ModelPath, paths.Charset)
	if err != nil {
		return nil, &StartupLoadError{Artifact: "model", Path: paths.ModelPath, Err: err}
	}
	if model.NumFeatures() != len(recordFields) {
		return nil, &StartupLoadError{
			Artifact: "model",
			Path:     paths.ModelPath,
			Err:      fmt.Errorf("model expects %d features, want %d", model.NumFeatures(), len(recordFields)),
		}
	}

	scaler, err := ml.LoadScaler(paths.ScalerPath, paths.Charset)
	if err != nil {
		return nil, &StartupLoadError{Artifact: "scaler", Path: paths.ScalerPath, Err: err}
	}

	artifacts := &Artifacts{
		Model:    model,
		Scaler:   scaler,
		Encoders: make(map[Field]Encoder, len(CategoricalFields)),
		Info: ArtifactInfo{
			ModelType:    ml.ModelType(model),
			NumFeatures:  model.NumFeatures(),
			ScalerKind:   scaler.Kind(),
			Vocabularies: make(map[Field][]string, len(CategoricalFields)),
			Files:        []string{paths.ModelPath, paths.ScalerPath},
		},
	}

	for _, field := range CategoricalFields {
		name := string(field) + " encoder"
		path, err := EncoderPath(paths.EncodersDir, field)
		if err != nil {
			return nil, &StartupLoadError{Artifact: name, Path: paths.EncodersDir, Err: err}
		}
		encoder, err := ml.LoadLabelEncoder(path, paths.Charset)
		if err != nil {
			return nil, &StartupLoadError{Artifact: name, Path: path, Err: err}
		}
		artifacts.Encoders[field] = encoder
		artifacts.Info.Vocabularies[field] = encoder.Classes()
		artifacts.Info.Files = append(artifacts.Info.Files, path)
	}

	return artifacts, nil
}
