package serializer

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/nojima/restie/mapper"
	"github.com/pkg/errors"
)

type JSONSerializer struct {
	contentType string
}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{contentType: ContentTypeJSON}
}

func (s *JSONSerializer) Format() DataFormat { return JSON }

func (s *JSONSerializer) ContentType() string { return s.contentType }

func (s *JSONSerializer) AcceptedContentTypes() []string { return jsonContentTypes }

func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "serializing json")
	}
	return data, nil
}

// Deserialize decodes data into a generic tree, keeping numbers as
// json.Number, and maps the tree onto v.
func (s *JSONSerializer) Deserialize(data []byte, v any, opts mapper.Options) error {
	tree, err := DecodeJSONTree(data)
	if err != nil {
		return err
	}
	return mapper.New(opts).Map(tree, v)
}

func DecodeJSONTree(data []byte) (any, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}
	return tree, nil
}
