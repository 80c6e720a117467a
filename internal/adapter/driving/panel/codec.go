package panel

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mfrayne/bitpane/internal/application"
)

// The diff view descriptor crosses the host's view boundary as a string: the
// "open diff" action encodes it into the view URI's query and the content
// provider decodes it back. The payload is JSON wrapped in one query
// parameter so the descriptor survives any URI normalization the host
// applies.

const queryParam = "args"

// EncodeDiffViewQuery serializes the descriptor into a query string.
func EncodeDiffViewQuery(args *application.DiffViewArgs) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding diff view args: %w", err)
	}
	v := url.Values{}
	v.Set(queryParam, string(raw))
	return v.Encode(), nil
}

// DecodeDiffViewQuery parses a query string produced by EncodeDiffViewQuery.
func DecodeDiffViewQuery(query string) (*application.DiffViewArgs, error) {
	v, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("parsing diff view query: %w", err)
	}
	raw := v.Get(queryParam)
	if raw == "" {
		return nil, fmt.Errorf("diff view query missing %q parameter", queryParam)
	}
	var args application.DiffViewArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decoding diff view args: %w", err)
	}
	return &args, nil
}
