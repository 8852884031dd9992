package tableau

import (
	"errors"
	"fmt"
	"io"

	"github.com/sbabiv/xml2map"
)

// ParseXML decodes an XML stream into a generic map for logging.
func ParseXML(r io.Reader) (doc map[string]any, rerr error) {
	defer func() {
		if r := recover(); r != nil {
			rerr = errors.Join(rerr, fmt.Errorf("tableau: xml decoder: %v", r))
		}
	}()
	data, err := xml2map.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("tableau: xml decoder: %w", err)
	}
	return data, nil
}
