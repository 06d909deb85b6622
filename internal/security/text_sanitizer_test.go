package security

import "testing"

func TestSanitizeText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "ISO 9001:2015",
			want:  "ISO 9001:2015",
		},
		{
			name:  "タグが除去される",
			input: "<b>Great</b> service",
			want:  "Great service",
		},
		{
			name:  "scriptの中身ごと除去される",
			input: `Hello<script>alert("xss")</script>`,
			want:  "Hello",
		},
		{
			name:  "イベント属性付きのタグが除去される",
			input: `<img src=x onerror="alert(1)">Photo`,
			want:  "Photo",
		},
		{
			name:  "アンパサンドは二重エスケープされない",
			input: "Tom & Jerry",
			want:  "Tom & Jerry",
		},
		{
			name:  "引用符が保持される",
			input: `She said "excellent"`,
			want:  `She said "excellent"`,
		},
		{
			name:  "前後の空白が除去される",
			input: "  Manager  ",
			want:  "Manager",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	inputs := []string{
		"<p>Hello <em>world</em></p>",
		"A &amp; B",
		"plain",
	}
	for _, in := range inputs {
		once := sanitizer.SanitizeText(in)
		twice := sanitizer.SanitizeText(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
