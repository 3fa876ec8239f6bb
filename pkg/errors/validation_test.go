package errors

import (
	"strings"
	"testing"
)

func TestValidateDiagramSource(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"Valid", "flowchart TD\n  A --> B", false},
		{"Empty", "", true},
		{"Whitespace", "   \n\t", true},
		{"NullByte", "flowchart\x00TD", true},
		{"TooLarge", strings.Repeat("x", MaxSourceBytes+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDiagramSource(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDiagramSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidSource {
				t.Errorf("wrong code: %v", GetCode(err))
			}
		})
	}
}

func TestValidateDiagramType(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		wantErr bool
	}{
		{"Flowchart", "flowchart", false},
		{"Alnum", "c4context", false},
		{"Empty", "", true},
		{"Uppercase", "Flowchart", true},
		{"Spaces", "flow chart", true},
		{"Unicode", "flöwchart", true},
		{"TooLong", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDiagramType(tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDiagramType(%q) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"Simple", "out.drawio", false},
		{"Nested", "build/diagrams/out.drawio", false},
		{"Empty", "", true},
		{"Traversal", "../../etc/passwd", true},
		{"Control", "out\n.drawio", true},
		{"TooLong", strings.Repeat("a/", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
