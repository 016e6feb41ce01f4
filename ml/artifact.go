package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v2"
)

// readArtifact reads the file at path, converting it to UTF-8 when charset
// names a legacy encoding such as "windows-1252" or "gbk".
func readArtifact(path, charset string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file
	if charset != "" && !isUTF8(charset) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
		}
		reader = transform.NewReader(file, enc.NewDecoder())
	}
	return io.ReadAll(reader)
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// decodeArtifact decodes a JSON or YAML artifact into v. The format is picked
// from the file extension; files without one are treated as JSON.
func decodeArtifact(path, charset string, v interface{}) error {
	payload, err := readArtifact(path, charset)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	return nil
}
