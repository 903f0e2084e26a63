package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ListingsResponse from GET /listings
type ListingsResponse struct {
	Global  []APIGlobal `json:"global"`
	Tickets []RawTicket `json:"tickets"`
}

// APIGlobal holds production-level metadata.
type APIGlobal struct {
	ProductionID   Scalar `json:"productionId"`
	ProductionName string `json:"productionName"`
	MapTitle       string `json:"mapTitle"`
}

// RawTicket is one listing record exactly as the marketplace returns it.
// Numeric fields arrive as strings or numbers depending on the endpoint version.
type RawTicket struct {
	Label             Scalar `json:"l"`
	Price             Scalar `json:"p"`
	Quantity          Scalar `json:"q"`
	AllInclusivePrice Scalar `json:"aip"`
	Row               Scalar `json:"r"`
	Notes             Scalar `json:"n"`
	ID                Scalar `json:"i"`
}

// Scalar is a JSON string, number or bool kept as its textual form.
// An absent or null field decodes to the empty Scalar. Objects and arrays
// are kept as compact JSON so one odd record never fails the whole payload;
// IsComposite reports them.
type Scalar string

// UnmarshalJSON accepts any JSON value.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = Scalar(buf.String())
	default:
		*s = Scalar(data)
	}
	return nil
}

// String returns the trimmed textual value.
func (s Scalar) String() string {
	return strings.TrimSpace(string(s))
}

// IsEmpty reports whether the field was absent, null or blank.
func (s Scalar) IsEmpty() bool {
	return s.String() == ""
}

// IsComposite reports whether the field held a JSON object or array.
func (s Scalar) IsComposite() bool {
	v := s.String()
	if v == "" || (v[0] != '{' && v[0] != '[') {
		return false
	}
	return json.Valid([]byte(v))
}

// GetListingsOptions configures a GetListings request.
type GetListingsOptions struct {
	Currency         string
	IncludeIPAddress bool
	LocalizeCurrency bool
}
