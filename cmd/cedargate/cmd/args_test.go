package cmd

import (
	"testing"

	"github.com/k9securityio/cedargate/pkg/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequests(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		batch   bool
		wantErr bool
		check   func(t *testing.T, reqs []authz.Request)
	}{
		{
			name: "single request",
			data: `{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"vacation\""}`,
			check: func(t *testing.T, reqs []authz.Request) {
				require.Len(t, reqs, 1)
				assert.Equal(t, authz.RefString(`User::"alice"`), reqs[0].Principal)
				assert.Nil(t, reqs[0].Context)
			},
		},
		{
			name: "context as object",
			data: `{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"p\"", "context": {"mfa": true}}`,
			check: func(t *testing.T, reqs []authz.Request) {
				require.Len(t, reqs, 1)
				assert.Equal(t, authz.ContextJSON(`{"mfa": true}`), reqs[0].Context)
			},
		},
		{
			name: "context as string",
			data: `{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"p\"", "context": "{\"mfa\": true}"}`,
			check: func(t *testing.T, reqs []authz.Request) {
				require.Len(t, reqs, 1)
				assert.Equal(t, authz.ContextJSON(`{"mfa": true}`), reqs[0].Context)
			},
		},
		{
			name: "null context ignored",
			data: `{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"p\"", "context": null}`,
			check: func(t *testing.T, reqs []authz.Request) {
				require.Len(t, reqs, 1)
				assert.Nil(t, reqs[0].Context)
			},
		},
		{
			name:  "batch preserves order",
			data:  `[{"principal": "User::\"a\"", "action": "Action::\"view\"", "resource": "Photo::\"p\""}, {"principal": "User::\"b\"", "action": "Action::\"view\"", "resource": "Photo::\"p\"", "correlation_id": "req-2"}]`,
			batch: true,
			check: func(t *testing.T, reqs []authz.Request) {
				require.Len(t, reqs, 2)
				assert.Equal(t, authz.RefString(`User::"a"`), reqs[0].Principal)
				assert.Equal(t, "req-2", reqs[1].CorrelationID)
			},
		},
		{
			name:    "unknown field rejected",
			data:    `{"principal": "User::\"a\"", "action": "Action::\"view\"", "resource": "Photo::\"p\"", "princpal": "oops"}`,
			wantErr: true,
		},
		{
			name:    "single object where batch expected",
			data:    `{"principal": "User::\"a\"", "action": "Action::\"view\"", "resource": "Photo::\"p\""}`,
			batch:   true,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `permit(principal, action, resource);`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := decodeRequests([]byte(tt.data), tt.batch)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, reqs)
		})
	}
}

func TestAssignCorrelationIDs(t *testing.T) {
	reqs := []authz.Request{
		{Principal: authz.RefString(`User::"a"`)},
		{Principal: authz.RefString(`User::"b"`), CorrelationID: "keep-me"},
	}

	assignCorrelationIDs(reqs)

	assert.NotEmpty(t, reqs[0].CorrelationID)
	assert.Equal(t, "keep-me", reqs[1].CorrelationID)
}

func TestLooksLikeJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"object", `{"": {}}`, true},
		{"leading whitespace", "\n\t {\"\": {}}", true},
		{"cedar schema", `entity User;`, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeJSON([]byte(tt.data)))
		})
	}
}
