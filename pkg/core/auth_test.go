package core

import "testing"

func TestSecureCompareString(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"equal", "abcdef0123456789", "abcdef0123456789", true},
		{"different", "abcdef0123456789", "abcdef0123456780", false},
		{"different lengths", "abc", "abcd", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecureCompareString(tt.a, tt.b); got != tt.want {
				t.Errorf("SecureCompareString(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValidateAuthToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "short", true},
		{"weak token", "supersecret12345678", true},
		{"strong token", "xK9mQ2vL8pR4wN7j", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAuthToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticateBearer(t *testing.T) {
	const token = "xK9mQ2vL8pR4wN7j"

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "Bearer " + token, true},
		{"missing header", "", false},
		{"wrong scheme", "Basic " + token, false},
		{"wrong token", "Bearer nope", false},
		{"no scheme", token, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AuthenticateBearer(tt.header, token)
			if result.Authorized != tt.want {
				t.Errorf("AuthenticateBearer(%q) authorized = %v, want %v (error: %s)",
					tt.header, result.Authorized, tt.want, result.Error)
			}
		})
	}
}

func TestAuthenticateBasic(t *testing.T) {
	const creds = "user:xK9mQ2vL8pR4wN7j"

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"valid", "user", "xK9mQ2vL8pR4wN7j", true},
		{"wrong password", "user", "nope", false},
		{"missing username", "", "xK9mQ2vL8pR4wN7j", false},
		{"missing password", "user", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AuthenticateBasic(tt.username, tt.password, creds)
			if result.Authorized != tt.want {
				t.Errorf("AuthenticateBasic(%q, %q) authorized = %v, want %v",
					tt.username, tt.password, result.Authorized, tt.want)
			}
		})
	}
}
