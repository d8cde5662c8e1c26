package textgen

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: `{"a":1}`, want: `{"a":1}`, wantOK: true},
		{in: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, wantOK: true},
		{in: "no json here", wantOK: false},
		{in: "} backwards {", wantOK: false},
	}
	for _, tc := range cases {
		got, ok := ExtractJSONObject(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("ExtractJSONObject(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
