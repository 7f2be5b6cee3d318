package album

import (
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of a cached album record.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(&common.Album{})
	s.Title = "Trip album"
	return s
}

// PhotoSchema returns the JSON Schema of a photo record as accepted by the
// import endpoints.
func PhotoSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return r.Reflect(&[]common.PhotoRecord{})
}
