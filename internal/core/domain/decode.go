package domain

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// DecodeRecords reads either a single TDE object or an array of them.
func DecodeRecords(r io.Reader) ([]TDE, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var tdes []TDE
		if err := json.Unmarshal(data, &tdes); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return tdes, nil
	}

	var t TDE
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return []TDE{t}, nil
}
