package engine

import "testing"

func TestExtractMetavarName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		wantName string
		wantEnd  int
	}{
		{name: "simple name", input: "VAR", pos: 0, wantName: "VAR", wantEnd: 3},
		{name: "name with digits", input: "ARG1, $ARG2", pos: 0, wantName: "ARG1", wantEnd: 4},
		{name: "underscore wildcard", input: "_", pos: 0, wantName: "_", wantEnd: 1},
		{name: "stops at lowercase", input: "Xy", pos: 0, wantName: "X", wantEnd: 1},
		{name: "lowercase start is invalid", input: "var", pos: 0, wantName: "", wantEnd: 0},
		{name: "digit start is invalid", input: "1VAR", pos: 0, wantName: "", wantEnd: 0},
		{name: "empty input", input: "", pos: 0, wantName: "", wantEnd: 0},
		{name: "mid string", input: "foo($X)", pos: 5, wantName: "X", wantEnd: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, end := extractMetavarName(tt.input, tt.pos)
			if name != tt.wantName || end != tt.wantEnd {
				t.Errorf("extractMetavarName(%q, %d) = (%q, %d), want (%q, %d)",
					tt.input, tt.pos, name, end, tt.wantName, tt.wantEnd)
			}
		})
	}
}

func TestPlaceholderRoundTrip(t *testing.T) {
	names := []string{"X", "VAR", "ARG1", "_", "LONG_NAME_2"}
	for _, name := range names {
		placeholder := placeholderForMetavar(name)
		got, ok := metavarNameFromPlaceholder(placeholder)
		if !ok {
			t.Fatalf("placeholder %q not recognized", placeholder)
		}
		if got != name {
			t.Errorf("round trip of %q gave %q", name, got)
		}
	}
}

func TestMetavarNameFromPlaceholderRejectsOrdinaryIdentifiers(t *testing.T) {
	for _, ident := range []string{"foo", "x", "_", "__TGP_METAVAR_", "METAVAR_X__", "__tgp_metavar_x__"} {
		if _, ok := metavarNameFromPlaceholder(ident); ok {
			t.Errorf("identifier %q wrongly recognized as placeholder", ident)
		}
	}
}
