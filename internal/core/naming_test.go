package core

import (
	"testing"

	"github.com/mercury-protocol/ceres/internal/errors"
)

func TestNamesFor(t *testing.T) {
	tests := []struct {
		project string
		want    Names
		elf, id string
		methods string
	}{
		{
			project: "widget",
			want:    Names{Project: "widget", Methods: "widget-methods", Ident: "widget", Const: "WIDGET"},
			elf:     "WIDGET_ELF", id: "WIDGET_ID", methods: "widget_methods",
		},
		{
			project: "my-feed_2",
			want:    Names{Project: "my-feed_2", Methods: "my-feed_2-methods", Ident: "my_feed_2", Const: "MY_FEED_2"},
			elf:     "MY_FEED_2_ELF", id: "MY_FEED_2_ID", methods: "my_feed_2_methods",
		},
	}

	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			got := NamesFor(tt.project)
			if got != tt.want {
				t.Errorf("NamesFor(%q) = %+v, want %+v", tt.project, got, tt.want)
			}
			if got.ELF() != tt.elf || got.ID() != tt.id {
				t.Errorf("constants = %s/%s, want %s/%s", got.ELF(), got.ID(), tt.elf, tt.id)
			}
			if got.MethodsIdent() != tt.methods {
				t.Errorf("MethodsIdent() = %q, want %q", got.MethodsIdent(), tt.methods)
			}
		})
	}
}

func TestProjectNameFromDir(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		want    string
		wantErr errors.Code
	}{
		{"absolute", "/home/me/projects/widget", "widget", ""},
		{"trailing slash", "/home/me/widget/", "widget", ""},
		{"relative", "work/weather-feed", "weather-feed", ""},
		{"root", "/", "", errors.ENotProject},
		{"invalid characters", "/tmp/my project", "", errors.EUsage},
		{"leading digit", "/tmp/1feed", "", errors.EUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProjectNameFromDir(tt.dir)
			if tt.wantErr != "" {
				if errors.GetCode(err) != tt.wantErr {
					t.Fatalf("error code = %q, want %q (err: %v)", errors.GetCode(err), tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ProjectNameFromDir(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}

func TestValidateProjectName(t *testing.T) {
	valid := []string{"a", "widget", "Widget2", "my-feed", "my_feed"}
	for _, n := range valid {
		if err := ValidateProjectName(n); err != nil {
			t.Errorf("ValidateProjectName(%q) = %v, want nil", n, err)
		}
	}

	invalid := []string{"", "-feed", "_feed", "9feed", "fe.ed", "fe ed", "féed"}
	for _, n := range invalid {
		if err := ValidateProjectName(n); errors.GetCode(err) != errors.EUsage {
			t.Errorf("ValidateProjectName(%q) code = %q, want E_USAGE", n, errors.GetCode(err))
		}
	}
}

func TestSlugify_Table(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		maxLen int
		expect string
	}{
		{"hello world", "  Hello, World!!  ", 30, "hello-world"},
		{"all hyphens and underscores", "---___---", 30, "untitled"},
		{"spaces become hyphens", "a  b   c", 30, "a-b-c"},
		{"empty string", "", 30, "untitled"},
		{"numbers preserved", "Weather Feed 2", 30, "weather-feed-2"},
		{"truncation retrims", "abc def", 4, "abc"},
		{"zero max", "abc", 0, "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.title, tt.maxLen)
			if got != tt.expect {
				t.Errorf("Slugify(%q, %d) = %q, want %q", tt.title, tt.maxLen, got, tt.expect)
			}
		})
	}
}
