package userconfig

import (
	"fmt"

	"github.com/book-expert/morse-service/internal/core"
	"github.com/bytedance/sonic"
)

// Record is the persisted form of the store: user ID to settings.
type Record map[string]core.UserConfig

// Marshal encodes a record with sorted user IDs.
func Marshal(record Record) ([]byte, error) {
	if record == nil {
		record = Record{}
	}

	data, err := sonic.ConfigStd.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user configs: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a persisted record. Empty input decodes to an empty record.
func Unmarshal(data []byte) (Record, error) {
	record := Record{}

	if len(data) == 0 {
		return record, nil
	}

	err := sonic.ConfigStd.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user configs: %w", err)
	}

	return record, nil
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for userID, cfg := range r {
		out[userID] = cfg
	}

	return out
}
