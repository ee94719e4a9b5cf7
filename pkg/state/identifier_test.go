package state_test

import (
	"testing"

	"github.com/goliatone/go-entities/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		ref     state.Ref
		want    string
		wantErr bool
	}{
		{name: "main", ref: state.MainRef(), want: "main"},
		{name: "module", ref: state.ModuleRef("counter"), want: "modules/counter"},
		{name: "module trims", ref: state.ModuleRef(" quotes "), want: "modules/quotes"},
		{name: "module without name", ref: state.ModuleRef(""), wantErr: true},
		{name: "module path traversal", ref: state.ModuleRef("../main"), wantErr: true},
		{name: "module dot dot", ref: state.ModuleRef(".."), wantErr: true},
		{name: "unknown namespace", ref: state.Ref{Namespace: "users"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]state.Format{"": state.FormatJSON, "json": state.FormatJSON, "yml": state.FormatYAML, "yaml": state.FormatYAML} {
		got, err := state.ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := state.ParseFormat("toml")
	require.Error(t, err)
}
