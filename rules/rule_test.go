package rules

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr error
	}{
		{
			name: "valid",
			rule: Rule{Label: "Insertion", Opening: "++", Closing: "++", Tag: "ins"},
		},
		{
			name: "tag case insensitive",
			rule: Rule{Label: "Superscript", Opening: "^", Closing: "^", Tag: "SUP"},
		},
		{
			name:    "denied script",
			rule:    Rule{Label: "Evil", Opening: "!!", Closing: "!!", Tag: "script"},
			wantErr: ErrRejected,
		},
		{
			name:    "denied embed mixed case",
			rule:    Rule{Label: "Evil", Opening: "!!", Closing: "!!", Tag: "EmBeD"},
			wantErr: ErrRejected,
		},
		{
			name:    "not permitted",
			rule:    Rule{Label: "Table", Opening: "!!", Closing: "!!", Tag: "table"},
			wantErr: ErrRejected,
		},
		{
			name:    "empty opening",
			rule:    Rule{Label: "Empty", Opening: "", Closing: "!!", Tag: "span"},
			wantErr: ErrMalformedDelimiter,
		},
		{
			name:    "empty closing",
			rule:    Rule{Label: "Empty", Opening: "!!", Closing: "", Tag: "span"},
			wantErr: ErrMalformedDelimiter,
		},
		{
			name:    "whitespace around delimiter",
			rule:    Rule{Label: "Spaced", Opening: " !!", Closing: "!!", Tag: "span"},
			wantErr: ErrMalformedDelimiter,
		},
		{
			name:    "reserved character",
			rule:    Rule{Label: "Reserved", Opening: "!" + string(Placeholder), Closing: "!!", Tag: "span"},
			wantErr: ErrMalformedDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRule_ValidateReportsAllProblems(t *testing.T) {
	r := Rule{Label: "Broken", Tag: "object"}
	err := r.Validate()
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected in %v", err)
	}
	if !errors.Is(err, ErrMalformedDelimiter) {
		t.Errorf("expected ErrMalformedDelimiter in %v", err)
	}
	if !strings.Contains(err.Error(), "opening") || !strings.Contains(err.Error(), "closing") {
		t.Errorf("expected both delimiters reported, got %v", err)
	}
}

func TestRule_ClassList(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want []string
	}{
		{
			name: "configured",
			rule: Rule{Label: "Insertion", Classes: "extended-syntax-insert"},
			want: []string{ScopeClass, "extended-syntax-insert"},
		},
		{
			name: "several configured",
			rule: Rule{Label: "Spoiler", Classes: "  spoiler   hidden "},
			want: []string{ScopeClass, "spoiler", "hidden"},
		},
		{
			name: "scope class not repeated",
			rule: Rule{Label: "Spoiler", Classes: "extended-syntax spoiler"},
			want: []string{ScopeClass, "spoiler"},
		},
		{
			name: "derived from label",
			rule: Rule{Label: "Small Caps"},
			want: []string{ScopeClass, "extended-syntax-small-caps"},
		},
		{
			name: "nothing to derive",
			rule: Rule{},
			want: []string{ScopeClass},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.ClassList(); !slices.Equal(got, tt.want) {
				t.Errorf("ClassList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTag(t *testing.T) {
	for _, name := range TagNames() {
		tag, err := ParseTag(strings.ToUpper(name))
		if err != nil {
			t.Errorf("ParseTag(%q) error = %v", name, err)
			continue
		}
		if tag.String() != name {
			t.Errorf("ParseTag(%q) = %q", name, tag)
		}
	}
	for _, name := range []string{"script", "object", "embed", "link", " Link "} {
		if !IsDenied(name) {
			t.Errorf("IsDenied(%q) = false", name)
		}
		if _, err := ParseTag(name); !errors.Is(err, ErrRejected) {
			t.Errorf("ParseTag(%q) error = %v, want ErrRejected", name, err)
		}
	}
}
