package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Language
		wantErr bool
	}{
		{name: "Uppercase", input: "CS", want: LanguageCS},
		{name: "Lowercase", input: "de", want: LanguageDE},
		{name: "Mixed Case", input: "Pl", want: LanguagePL},
		{name: "English", input: "en", want: LanguageEN},
		{name: "Slovak", input: "SK", want: LanguageSK},
		{name: "Unsupported", input: "fr", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "english", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported language")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageNameKey(t *testing.T) {
	assert.Equal(t, "cs", LanguageCS.NameKey())
	assert.Equal(t, "de", LanguageDE.NameKey())
	assert.Equal(t, "en", LanguageEN.NameKey())
	assert.Equal(t, "pl", LanguagePL.NameKey())
	assert.Equal(t, "sk", LanguageSK.NameKey())
}

func TestLanguagePreferredCountryISO(t *testing.T) {
	// English readers are served the Czech market first, same as Czech ones.
	assert.Equal(t, "CZ", LanguageCS.PreferredCountryISO())
	assert.Equal(t, "CZ", LanguageEN.PreferredCountryISO())
	assert.Equal(t, "DE", LanguageDE.PreferredCountryISO())
	assert.Equal(t, "PL", LanguagePL.PreferredCountryISO())
	assert.Equal(t, "SK", LanguageSK.PreferredCountryISO())
}

func TestLanguageDefaultCityID(t *testing.T) {
	// CS and EN share Prague as their no-signal fallback.
	assert.Equal(t, int64(101748113), LanguageCS.DefaultCityID())
	assert.Equal(t, LanguageCS.DefaultCityID(), LanguageEN.DefaultCityID())
	assert.Equal(t, int64(101909779), LanguageDE.DefaultCityID())
	assert.Equal(t, int64(101752777), LanguagePL.DefaultCityID())
	assert.Equal(t, int64(1108800123), LanguageSK.DefaultCityID())
}
