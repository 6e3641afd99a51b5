package nhslogin

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the NHS login ID token claims, decoded with type checks.
type IDTokenClaims struct {
	// Standard JWT claims
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  []string `json:"aud"`
	ExpiresAt int64    `json:"exp"`
	IssuedAt  int64    `json:"iat"`
	NotBefore int64    `json:"nbf,omitempty"`
	JWTID     string   `json:"jti,omitempty"`

	// OIDC claims
	AuthTime int64  `json:"auth_time,omitempty"`
	Nonce    string `json:"nonce,omitempty"`

	// Vector of trust granted and its trust mark
	VectorOfTrust   string `json:"vot,omitempty"`
	VectorTrustMark string `json:"vtm,omitempty"`

	// Profile claims
	IdentityProofingLevel string `json:"identity_proofing_level,omitempty"`
	NHSNumber             string `json:"nhs_number,omitempty"`
	GivenName             string `json:"given_name,omitempty"`
	FamilyName            string `json:"family_name,omitempty"`
	Birthdate             string `json:"birthdate,omitempty"`

	// Contact claims
	Email               string `json:"email,omitempty"`
	EmailVerified       bool   `json:"email_verified,omitempty"`
	PhoneNumber         string `json:"phone_number,omitempty"`
	PhoneNumberVerified bool   `json:"phone_number_verified,omitempty"`

	// GP registration claims
	GPRegistration *GPRegistrationDetails `json:"gp_registration_details,omitempty"`

	// Custom holds claims not modelled above.
	Custom map[string]interface{} `json:"-"`
}

// GPRegistrationDetails is the structured gp_registration_details claim.
type GPRegistrationDetails struct {
	GPODSCode string `json:"gp_ods_code,omitempty"`
}

// Expiry returns exp as a time, or the zero time when absent.
func (c *IDTokenClaims) Expiry() time.Time {
	if c.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.ExpiresAt, 0)
}

// HasAudience reports whether aud contains clientID.
func (c *IDTokenClaims) HasAudience(clientID string) bool {
	for _, a := range c.Audience {
		if a == clientID {
			return true
		}
	}
	return false
}

var modelledClaims = map[string]bool{
	"iss": true, "sub": true, "aud": true, "exp": true, "iat": true, "nbf": true, "jti": true,
	"auth_time": true, "nonce": true, "vot": true, "vtm": true,
	"identity_proofing_level": true, "nhs_number": true, "given_name": true,
	"family_name": true, "birthdate": true, "email": true, "email_verified": true,
	"phone_number": true, "phone_number_verified": true, "gp_registration_details": true,
}

// parseIDTokenClaims maps a decoded JWT onto IDTokenClaims. A modelled claim
// with the wrong JSON type, or a missing sub, fails with ErrClaimsSchema.
func parseIDTokenClaims(token *jwt.Token) (*IDTokenClaims, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", ErrInvalidIDToken)
	}

	c := &IDTokenClaims{Custom: make(map[string]interface{})}
	d := claimDecoder{claims: claims}

	d.string("iss", &c.Issuer)
	d.string("sub", &c.Subject)
	d.audience(&c.Audience)
	d.number("exp", &c.ExpiresAt)
	d.number("iat", &c.IssuedAt)
	d.number("nbf", &c.NotBefore)
	d.string("jti", &c.JWTID)
	d.number("auth_time", &c.AuthTime)
	d.string("nonce", &c.Nonce)
	d.string("vot", &c.VectorOfTrust)
	d.string("vtm", &c.VectorTrustMark)
	d.string("identity_proofing_level", &c.IdentityProofingLevel)
	d.string("nhs_number", &c.NHSNumber)
	d.string("given_name", &c.GivenName)
	d.string("family_name", &c.FamilyName)
	d.string("birthdate", &c.Birthdate)
	d.string("email", &c.Email)
	d.bool("email_verified", &c.EmailVerified)
	d.string("phone_number", &c.PhoneNumber)
	d.bool("phone_number_verified", &c.PhoneNumberVerified)
	d.gpRegistration(&c.GPRegistration)

	if d.err != nil {
		return nil, d.err
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("%w: sub is required", ErrClaimsSchema)
	}

	for key, value := range claims {
		if !modelledClaims[key] {
			c.Custom[key] = value
		}
	}

	return c, nil
}

// claimDecoder records the first type mismatch and ignores later claims.
type claimDecoder struct {
	claims map[string]interface{}
	err    error
}

func (d *claimDecoder) mismatch(key, want string, got interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s must be %s, got %T", ErrClaimsSchema, key, want, got)
	}
}

func (d *claimDecoder) string(key string, dest *string) {
	v, ok := d.claims[key]
	if !ok || v == nil {
		return
	}
	s, ok := v.(string)
	if !ok {
		d.mismatch(key, "a string", v)
		return
	}
	*dest = s
}

func (d *claimDecoder) bool(key string, dest *bool) {
	v, ok := d.claims[key]
	if !ok || v == nil {
		return
	}
	b, ok := v.(bool)
	if !ok {
		d.mismatch(key, "a boolean", v)
		return
	}
	*dest = b
}

func (d *claimDecoder) number(key string, dest *int64) {
	v, ok := d.claims[key]
	if !ok || v == nil {
		return
	}
	switch n := v.(type) {
	case float64:
		*dest = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			d.mismatch(key, "an integer", v)
			return
		}
		*dest = i
	default:
		d.mismatch(key, "a number", v)
	}
}

func (d *claimDecoder) audience(dest *[]string) {
	v, ok := d.claims["aud"]
	if !ok || v == nil {
		return
	}
	switch aud := v.(type) {
	case string:
		*dest = []string{aud}
	case []interface{}:
		for _, a := range aud {
			s, ok := a.(string)
			if !ok {
				d.mismatch("aud", "a string or string array", v)
				return
			}
			*dest = append(*dest, s)
		}
	default:
		d.mismatch("aud", "a string or string array", v)
	}
}

func (d *claimDecoder) gpRegistration(dest **GPRegistrationDetails) {
	v, ok := d.claims["gp_registration_details"]
	if !ok || v == nil {
		return
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		d.mismatch("gp_registration_details", "an object", v)
		return
	}
	gp := &GPRegistrationDetails{}
	nested := claimDecoder{claims: m}
	nested.string("gp_ods_code", &gp.GPODSCode)
	if nested.err != nil {
		d.mismatch("gp_registration_details.gp_ods_code", "a string", m["gp_ods_code"])
		return
	}
	*dest = gp
}
