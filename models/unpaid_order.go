package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an identifier issued by the API. The API sends it as either a JSON
// string or a number; it is always kept and re-encoded as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// UnpaidOrder is an order that was created and issued a Snap token but has not
// been confirmed paid yet.
type UnpaidOrder struct {
	OrderID   ID     `json:"order_id" validate:"required"`
	SnapToken string `json:"snap_token" validate:"required"`
}
