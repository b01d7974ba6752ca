package redirect

import (
	"testing"
)

func TestBuilderSchemeAllowList(t *testing.T) {
	tests := []struct {
		name           string
		allowedSchemes map[string]int
		uri            string
		wantErr        bool
	}{
		{
			name:           "https allowed by default",
			allowedSchemes: nil,
			uri:            "https://example.com/cb",
			wantErr:        false,
		},
		{
			name:           "http allowed by default",
			allowedSchemes: nil,
			uri:            "http://example.com/cb",
			wantErr:        false,
		},
		{
			name:           "scheme outside the map",
			allowedSchemes: map[string]int{"https": 443},
			uri:            "http://example.com/cb",
			wantErr:        true,
		},
		{
			name:           "custom app scheme with zero port",
			allowedSchemes: map[string]int{"myapp": 0},
			uri:            "myapp://callback",
			wantErr:        false,
		},
		{
			name:           "scheme matching is case-insensitive",
			allowedSchemes: map[string]int{"https": 443},
			uri:            "HTTPS://example.com/cb",
			wantErr:        false,
		},
		{
			name:           "unparseable uri",
			allowedSchemes: nil,
			uri:            "http://exa mple.com",
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.allowedSchemes).Build(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Errorf("Build(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
		})
	}
}

func TestWithQueryAppendsParameters(t *testing.T) {
	uri, err := NewBuilder(nil).Build("https://example.com/cb")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := uri.WithQuery(map[string]string{"code": "abc123"}).URL()
	if got.Query().Get("code") != "abc123" {
		t.Errorf("code = %q, want %q", got.Query().Get("code"), "abc123")
	}
}

func TestWithQueryPreservesExistingQuery(t *testing.T) {
	uri, err := NewBuilder(nil).Build("https://example.com/cb?keep=1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := uri.WithQuery(map[string]string{"access_token": "tok"}).URL()
	if got.Query().Get("keep") != "1" {
		t.Error("existing query parameter was dropped")
	}
	if got.Query().Get("access_token") != "tok" {
		t.Error("appended parameter is missing")
	}
}

func TestWithQueryDoesNotMutateOriginal(t *testing.T) {
	uri, err := NewBuilder(nil).Build("https://example.com/cb")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	_ = uri.WithQuery(map[string]string{"code": "abc"})
	if uri.URL().Query().Get("code") != "" {
		t.Error("WithQuery mutated the source URI")
	}
}
