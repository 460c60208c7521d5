package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/gowebpki/jcs"
)

// marshalParams writes an encoded parameter bag as RFC 8785 canonical JSON so
// that equal bags are stored byte for byte identically.
func marshalParams(par timecodec.Bag) ([]byte, error) {
	if par == nil {
		par = timecodec.Bag{}
	}
	raw, err := json.Marshal(timecodec.Encode(par))
	if err != nil {
		return nil, fmt.Errorf("marshal knowledge_horizon_par: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize knowledge_horizon_par: %w", err)
	}
	return canonical, nil
}

// unmarshalParams keeps numbers as json.Number so integer parameters are not
// widened to float64.
func unmarshalParams(raw []byte) (timecodec.Bag, error) {
	par := timecodec.Bag{}
	if len(raw) == 0 {
		return par, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&par); err != nil {
		return nil, fmt.Errorf("unmarshal knowledge_horizon_par: %w", err)
	}
	return par, nil
}
