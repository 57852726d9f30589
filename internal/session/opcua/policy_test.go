package opcua

import "testing"

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SecurityPolicy
		wantErr bool
	}{
		{"", PolicyNone, false},
		{"None", PolicyNone, false},
		{"Basic256", PolicyBasic256, false},
		{"Basic256Sha256", PolicyBasic256Sha256, false},
		{"Aes128_Sha256_RsaOaep", PolicyAes128Sha256RsaOaep, false},
		{"Aes256_Sha256_RsaPss", PolicyAes256Sha256RsaPss, false},
		{"Basic128Rsa15", PolicyNone, true},
		{"signandencrypt", PolicyNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicyURI(t *testing.T) {
	got := PolicyBasic256Sha256.URI()
	want := "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	if got != want {
		t.Errorf("URI() = %q, want %q", got, want)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SecurityMode
		wantErr bool
	}{
		{"", ModeNone, false},
		{"None", ModeNone, false},
		{"Sign", ModeSign, false},
		{"SignAndEncrypt", ModeSignAndEncrypt, false},
		{"Encrypt", ModeNone, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
