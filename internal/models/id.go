package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexID идентификатор, который бэкенд отдаёт то числом, то строкой.
// Внутри клиента идентификаторы непрозрачны и хранятся строками.
type FlexID string

// UnmarshalJSON принимает JSON-число, строку или null (-> пустой ID).
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flex id: %w", err)
		}
		*id = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex id: %w", err)
	}
	*id = FlexID(n.String())

	return nil
}

// String возвращает строковое представление.
func (id FlexID) String() string { return string(id) }
