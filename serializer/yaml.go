package serializer

import (
	"github.com/goccy/go-yaml"
	"github.com/nojima/restie/mapper"
	"github.com/pkg/errors"
)

type YAMLSerializer struct{}

func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Format() DataFormat { return YAML }

func (s *YAMLSerializer) ContentType() string { return ContentTypeYAML }

func (s *YAMLSerializer) AcceptedContentTypes() []string { return yamlContentTypes }

func (s *YAMLSerializer) Serialize(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "serializing yaml")
	}
	return data, nil
}

func (s *YAMLSerializer) Deserialize(data []byte, v any, opts mapper.Options) error {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return errors.Wrap(err, "parsing yaml")
	}
	return mapper.New(opts).Map(tree, v)
}
