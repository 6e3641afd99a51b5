package nhslogin

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParseIDTokenClaims(t *testing.T) {
	t.Run("parses nhs login claims", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Unix()
		token := &jwt.Token{Claims: jwt.MapClaims{
			"iss":                     "https://auth.sandpit.signin.nhs.uk",
			"sub":                     "user-1",
			"aud":                     "du-nhs-login",
			"exp":                     float64(exp),
			"iat":                     float64(time.Now().Unix()),
			"vot":                     "P9.Cp.Cd",
			"vtm":                     "https://auth.sandpit.signin.nhs.uk/trustmark/auth.sandpit.signin.nhs.uk",
			"identity_proofing_level": "P9",
			"nhs_number":              "9000000009",
			"birthdate":               "1968-02-12",
			"given_name":              "Mona",
			"family_name":             "Millar",
			"email":                   "mona@example.com",
			"email_verified":          true,
			"gp_registration_details": map[string]interface{}{"gp_ods_code": "Y12345"},
		}}

		claims, err := parseIDTokenClaims(token)
		if err != nil {
			t.Fatalf("parseIDTokenClaims() error = %v", err)
		}

		if claims.Subject != "user-1" {
			t.Errorf("Subject = %s, want user-1", claims.Subject)
		}
		if !claims.HasAudience("du-nhs-login") {
			t.Errorf("Audience = %v, want du-nhs-login", claims.Audience)
		}
		if claims.ExpiresAt != exp {
			t.Errorf("ExpiresAt = %d, want %d", claims.ExpiresAt, exp)
		}
		if claims.Expiry().Unix() != exp {
			t.Errorf("Expiry() = %v", claims.Expiry())
		}
		if claims.NHSNumber != "9000000009" {
			t.Errorf("NHSNumber = %s", claims.NHSNumber)
		}
		if claims.IdentityProofingLevel != "P9" {
			t.Errorf("IdentityProofingLevel = %s", claims.IdentityProofingLevel)
		}
		if claims.VectorOfTrust != "P9.Cp.Cd" {
			t.Errorf("VectorOfTrust = %s", claims.VectorOfTrust)
		}
		if !claims.EmailVerified {
			t.Error("EmailVerified = false")
		}
		if claims.GPRegistration == nil || claims.GPRegistration.GPODSCode != "Y12345" {
			t.Errorf("GPRegistration = %+v", claims.GPRegistration)
		}
		if len(claims.Custom) != 0 {
			t.Errorf("Custom = %v, want empty", claims.Custom)
		}
	})

	t.Run("audience array", func(t *testing.T) {
		token := &jwt.Token{Claims: jwt.MapClaims{
			"sub": "user-1",
			"aud": []interface{}{"a", "b"},
		}}

		claims, err := parseIDTokenClaims(token)
		if err != nil {
			t.Fatalf("parseIDTokenClaims() error = %v", err)
		}
		if len(claims.Audience) != 2 || !claims.HasAudience("b") {
			t.Errorf("Audience = %v", claims.Audience)
		}
	})

	t.Run("custom claims kept", func(t *testing.T) {
		token := &jwt.Token{Claims: jwt.MapClaims{
			"sub":          "user-1",
			"surgery_name": "High Street",
		}}

		claims, err := parseIDTokenClaims(token)
		if err != nil {
			t.Fatalf("parseIDTokenClaims() error = %v", err)
		}
		if claims.Custom["surgery_name"] != "High Street" {
			t.Errorf("Custom = %v", claims.Custom)
		}
	})

	t.Run("no expiry", func(t *testing.T) {
		claims, err := parseIDTokenClaims(&jwt.Token{Claims: jwt.MapClaims{"sub": "user-1"}})
		if err != nil {
			t.Fatalf("parseIDTokenClaims() error = %v", err)
		}
		if !claims.Expiry().IsZero() {
			t.Errorf("Expiry() = %v, want zero", claims.Expiry())
		}
	})
}

func TestParseIDTokenClaims_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing sub", jwt.MapClaims{"iss": "x"}},
		{"sub not string", jwt.MapClaims{"sub": 42.0}},
		{"exp not number", jwt.MapClaims{"sub": "u", "exp": "tomorrow"}},
		{"email_verified not bool", jwt.MapClaims{"sub": "u", "email_verified": "yes"}},
		{"aud not strings", jwt.MapClaims{"sub": "u", "aud": []interface{}{1.0}}},
		{"aud object", jwt.MapClaims{"sub": "u", "aud": map[string]interface{}{}}},
		{"gp details not object", jwt.MapClaims{"sub": "u", "gp_registration_details": "Y123"}},
		{"gp ods code not string", jwt.MapClaims{"sub": "u", "gp_registration_details": map[string]interface{}{"gp_ods_code": 1.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseIDTokenClaims(&jwt.Token{Claims: tt.claims})
			if !errors.Is(err, ErrClaimsSchema) {
				t.Errorf("parseIDTokenClaims() error = %v, want ErrClaimsSchema", err)
			}
		})
	}
}

func TestParseIDTokenClaims_WrongClaimsType(t *testing.T) {
	_, err := parseIDTokenClaims(&jwt.Token{Claims: &jwt.RegisteredClaims{}})
	if !errors.Is(err, ErrInvalidIDToken) {
		t.Errorf("parseIDTokenClaims() error = %v, want ErrInvalidIDToken", err)
	}
}
