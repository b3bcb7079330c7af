package adapter

import (
	"encoding/json"
)

// JSON encodes mirror payloads: transaction record raw copies and change notifications
//
//go:generate mockgen -source=json.go -destination=../mocks/json.go -package=mocks -mock_names=JSON=MockJSON
type JSON interface {
	Marshal(v interface{}) ([]byte, error)
}

type stdJSON struct{}

// NewJSON returns the encoding/json backed encoder
func NewJSON() JSON {
	return stdJSON{}
}

func (stdJSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
