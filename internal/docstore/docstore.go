// Package docstore persists small JSON documents under the session storage
// root. Writes are atomic (temp file then rename) so a crash mid-write never
// corrupts the committed document, and reads preserve keys the current
// version does not know about so newer fields survive a round-trip through
// an older build.
package docstore

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/logging"
	"github.com/neteasedesktop/shell/schema"
)

// Store reads and writes JSON documents in a single directory.
type Store struct {
	root   string
	logger *logrus.Entry
}

// New returns a store rooted at dir. The directory must already exist.
func New(dir string) *Store {
	return &Store{
		root: dir,
		logger: logging.NewLogger("docstore").WithFields(logrus.Fields{
			"root": dir,
		}),
	}
}

// Root returns the directory documents are stored in.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path of a named document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Exists reports whether a named document has been committed.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// ReadRaw loads a document as a generic map. It returns (nil, nil) when the
// document does not exist yet. Malformed JSON or a schema violation yields
// ErrCodeDocumentCorrupt so callers can fall back to defaults.
func (s *Store) ReadRaw(name string) (map[string]interface{}, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to read document").WithDetail("path", path)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).WithField("document", name).Warn("Document is not valid JSON")
		return nil, errors.DocumentCorrupt(name, err.Error())
	}

	validator, err := schema.ForDocument(name)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		if err := validator.Validate(doc); err != nil {
			s.logger.WithError(err).WithField("document", name).Warn("Document failed schema validation")
			return nil, errors.DocumentCorrupt(name, err.Error())
		}
	}
	return doc, nil
}

// WriteRaw commits a document atomically: the JSON is written to a temp file
// in the same directory and renamed over the destination.
func (s *Store) WriteRaw(name string, doc map[string]interface{}) error {
	path := s.Path(name)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal,
			"failed to encode document").WithDetail("document", name)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to create temp file").WithDetail("path", path)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to write temp file").WithDetail("path", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to close temp file").WithDetail("path", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to commit document").WithDetail("path", path)
	}

	s.logger.WithField("document", name).Debug("Committed document")
	return nil
}

// Decode fills a typed document from a raw map, tolerating type drift
// (numbers arriving as strings, floats where ints are expected).
func Decode(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       base64ToBytesHook,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build document decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeDocumentCorrupt, "failed to decode document")
	}
	return nil
}

// base64ToBytesHook reverses the encoding/json convention of marshaling
// []byte fields as base64 strings.
func base64ToBytesHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]byte(nil)) {
		return data, nil
	}
	return base64.StdEncoding.DecodeString(data.(string))
}

// Encode converts a typed document into the raw map form used for writes.
func Encode(doc interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode document")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode document")
	}
	return raw, nil
}

// Merge overlays the encoded form of doc onto base, preserving keys in base
// that doc does not define. Returns the merged map ready for WriteRaw.
func Merge(base map[string]interface{}, doc interface{}) (map[string]interface{}, error) {
	overlay, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return overlay, nil
	}
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged, nil
}
