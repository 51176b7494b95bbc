package serializer

import (
	"bytes"
	"encoding/xml"

	"github.com/nojima/restie/mapper"
	"github.com/pkg/errors"
)

// XMLSerializer writes values with encoding/xml and reads them through
// mapper.Element, so targets need no xml tags.
type XMLSerializer struct {
	// RootElement renames the outermost element when serializing.
	RootElement string
	// Namespace is set on the outermost element when serializing.
	Namespace string
}

func NewXMLSerializer() *XMLSerializer {
	return &XMLSerializer{}
}

func (s *XMLSerializer) Format() DataFormat { return XML }

func (s *XMLSerializer) ContentType() string { return ContentTypeXML }

func (s *XMLSerializer) AcceptedContentTypes() []string { return xmlContentTypes }

func (s *XMLSerializer) Serialize(v any) ([]byte, error) {
	if s.RootElement == "" && s.Namespace == "" {
		data, err := xml.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "serializing xml")
		}
		return data, nil
	}

	root := s.RootElement
	if root == "" {
		root = rootName(v)
	}
	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)
	start := xml.StartElement{Name: xml.Name{Space: s.Namespace, Local: root}}
	if err := encoder.EncodeElement(v, start); err != nil {
		return nil, errors.Wrap(err, "serializing xml")
	}
	if err := encoder.Flush(); err != nil {
		return nil, errors.Wrap(err, "serializing xml")
	}
	return buf.Bytes(), nil
}

// rootName is the element name encoding/xml would pick for v.
func rootName(v any) string {
	data, err := xml.Marshal(v)
	if err != nil {
		return "root"
	}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "root"
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}

func (s *XMLSerializer) Deserialize(data []byte, v any, opts mapper.Options) error {
	root, err := mapper.ParseElement(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return mapper.New(opts).Map(root, v)
}
