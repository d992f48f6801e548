package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SilverCrocus/slack-pr-bot/internal/domain"
)

func TestFromConfig(t *testing.T) {
	cfg := &Config{
		Primary: "Nigel:U0000000001",
		Members: []string{"Alice:U0000000002", " Bob : U0000000003 ", "", "Nigel:U0000000001"},
	}

	dir, err := FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewerIdentity{Name: "Nigel", Handle: "U0000000001"}, dir.Primary())
	assert.Equal(t, []domain.ReviewerIdentity{
		{Name: "Alice", Handle: "U0000000002"},
		{Name: "Bob", Handle: "U0000000003"},
	}, dir.Members())
	assert.Equal(t, []string{"Nigel", "Alice", "Bob"}, dir.Names())
}

func TestFromConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "malformed primary",
			cfg:     Config{Primary: "Nigel"},
			wantErr: ErrMalformedEntry,
		},
		{
			name:    "malformed member",
			cfg:     Config{Primary: "Nigel:U1", Members: []string{"Alice:"}},
			wantErr: ErrMalformedEntry,
		},
		{
			name:    "duplicate member",
			cfg:     Config{Primary: "Nigel:U1", Members: []string{"Alice:U2", "Alice:U3"}},
			wantErr: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(&tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewDirectoryRequiresPrimary(t *testing.T) {
	_, err := NewDirectory(domain.ReviewerIdentity{}, nil)
	require.ErrorIs(t, err, ErrEmptyDirectory)
}

func TestMembersReturnsCopy(t *testing.T) {
	dir, err := NewDirectory(
		domain.ReviewerIdentity{Name: "P", Handle: "UP"},
		[]domain.ReviewerIdentity{{Name: "A", Handle: "UA"}},
	)
	require.NoError(t, err)

	members := dir.Members()
	members[0].Name = "changed"

	assert.Equal(t, "A", dir.Members()[0].Name)
}

func TestIdentityMap(t *testing.T) {
	ids := NewIdentityMap(map[string]string{"Octocat": "U123", "ghost": " ", "": "U9"})

	handle, ok := ids.Lookup("octocat")
	assert.True(t, ok)
	assert.Equal(t, "U123", handle)

	_, ok = ids.Lookup("ghost")
	assert.False(t, ok)

	_, ok = ids.Lookup("")
	assert.False(t, ok)
}
