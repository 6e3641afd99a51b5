package nhslogin

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncodeUAFResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		decoded  string
	}{
		{
			name:     "string message",
			response: `{"uafProtocolMessage":"[{\"header\":{\"op\":\"Auth\"}}]","additionalData":null}`,
			decoded:  `"[{\"header\":{\"op\":\"Auth\"}}]"`,
		},
		{
			name:     "object message is compacted",
			response: `{"uafProtocolMessage": { "header" : { "op" : "Auth" } } }`,
			decoded:  `{"header":{"op":"Auth"}}`,
		},
		{
			name:     "escapes and numbers normalized",
			response: `{"uafProtocolMessage":{"a":"x\/y","n":1.0,"e":2.50E1,"h":"<&>"}}`,
			decoded:  `{"a":"x/y","n":1,"e":25,"h":"<&>"}`,
		},
		{
			name:     "key order kept",
			response: `{"uafProtocolMessage":{"z":[true,false,null],"a":{}}}`,
			decoded:  `{"z":[true,false,null],"a":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeUAFResponse(tt.response)
			if err != nil {
				t.Fatalf("EncodeUAFResponse() error = %v", err)
			}

			raw, err := base64.RawURLEncoding.DecodeString(got)
			if err != nil {
				t.Fatalf("result is not unpadded base64url: %v", err)
			}
			if string(raw) != tt.decoded {
				t.Errorf("decoded = %s, want %s", raw, tt.decoded)
			}
		})
	}
}

func TestEncodeUAFResponse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "cancelled"},
		{"missing message", `{"other":1}`},
		{"null message", `{"uafProtocolMessage":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeUAFResponse(tt.response)
			if !errors.Is(err, ErrAssertionFailed) {
				t.Errorf("EncodeUAFResponse() error = %v, want ErrAssertionFailed", err)
			}
		})
	}
}
