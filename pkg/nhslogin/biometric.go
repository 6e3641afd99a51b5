package nhslogin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-webauthn/webauthn/protocol"
)

// fidoAuthResponseParam carries the encoded UAF message on the authorize URL.
const fidoAuthResponseParam = "fido_auth_response"

// AssertionProvider is the device biometric capability.
type AssertionProvider interface {
	// Available reports whether an enrolled biometric sensor is present.
	Available(ctx context.Context) (bool, error)

	// Authenticate prompts the user and returns the FIDO UAF authentication
	// response document, a JSON object with a uafProtocolMessage member.
	Authenticate(ctx context.Context) (string, error)
}

// FingerprintAvailable reports whether FingerprintLogin can be offered.
func (c *Coordinator) FingerprintAvailable(ctx context.Context) (bool, error) {
	if c.biometrics == nil {
		return false, nil
	}
	return c.biometrics.Available(ctx)
}

// FingerprintLogin obtains a UAF assertion, attaches it to the authorize URL
// as fido_auth_response and launches it. If the assertion cannot be obtained
// nothing is launched and no attempt is registered.
func (c *Coordinator) FingerprintLogin(ctx context.Context, mode PresentationMode, nav any) (*Attempt, error) {
	if c.biometrics == nil {
		return nil, fmt.Errorf("%w: no assertion provider configured", ErrAssertionFailed)
	}
	if err := c.checkLaunch(mode); err != nil {
		return nil, err
	}

	response, err := c.biometrics.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssertionFailed, err)
	}

	encoded, err := EncodeUAFResponse(response)
	if err != nil {
		return nil, err
	}

	return c.launch(ctx, mode, nav, QueryParam{Key: fidoAuthResponseParam, Value: encoded})
}

// EncodeUAFResponse extracts uafProtocolMessage from a UAF authentication
// response, re-serializes it the way JSON.stringify would and base64url
// encodes it without padding.
func EncodeUAFResponse(response string) (string, error) {
	var doc struct {
		UAFProtocolMessage json.RawMessage `json:"uafProtocolMessage"`
	}
	if err := json.Unmarshal([]byte(response), &doc); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrAssertionFailed, err)
	}

	if len(doc.UAFProtocolMessage) == 0 || bytes.Equal(doc.UAFProtocolMessage, []byte("null")) {
		return "", fmt.Errorf("%w: response has no uafProtocolMessage", ErrAssertionFailed)
	}

	message, err := reencodeJSON(doc.UAFProtocolMessage)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssertionFailed, err)
	}

	return protocol.URLEncodedBase64(message).String(), nil
}

// reencodeJSON rewrites raw compactly with object keys in source order,
// strings with minimal escaping and numbers in their shortest form.
func reencodeJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := reencodeValue(dec, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodeValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		open, end := byte(v), byte(']')
		if v == '{' {
			end = '}'
		}
		buf.WriteByte(open)
		for i := 0; dec.More(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if open == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeJSONString(buf, key.(string)); err != nil {
					return err
				}
				buf.WriteByte(':')
			}
			if err := reencodeValue(dec, buf); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(end)
	case string:
		return writeJSONString(buf, v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
