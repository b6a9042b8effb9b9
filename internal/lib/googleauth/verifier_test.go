package googleauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func staticValidator(payload *idtoken.Payload, err error) (ValidateFunc, *string) {
	var gotAudience string
	return func(_ context.Context, _ string, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		return payload, err
	}, &gotAudience
}

func TestVerifier_Verify(t *testing.T) {
	tests := []struct {
		name      string
		payload   *idtoken.Payload
		err       error
		wantErr   error
		wantEmail string
		wantName  bool
	}{
		{
			name: "verified email",
			payload: &idtoken.Payload{Subject: "1089", Claims: map[string]any{
				"email": "Dealer@Example.com", "email_verified": true, "name": "Dealer", "picture": "https://lh3.googleusercontent.com/a/x",
			}},
			wantEmail: "dealer@example.com",
			wantName:  true,
		},
		{
			name: "email_verified as string",
			payload: &idtoken.Payload{Subject: "1089", Claims: map[string]any{
				"email": "dealer@example.com", "email_verified": "true",
			}},
			wantEmail: "dealer@example.com",
		},
		{
			name:    "signature rejected",
			err:     errors.New("idtoken: invalid token signature"),
			wantErr: ErrInvalidToken,
		},
		{
			name: "email not verified",
			payload: &idtoken.Payload{Subject: "1089", Claims: map[string]any{
				"email": "dealer@example.com", "email_verified": false,
			}},
			wantErr: ErrEmailNotVerified,
		},
		{
			name:    "email missing",
			payload: &idtoken.Payload{Subject: "1089", Claims: map[string]any{"email_verified": true}},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "subject missing",
			payload: &idtoken.Payload{Claims: map[string]any{"email": "dealer@example.com", "email_verified": true}},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validate, audience := staticValidator(tt.payload, tt.err)
			v := NewVerifierWithValidator("client-id.apps.googleusercontent.com", validate)

			id, err := v.Verify(context.Background(), "id-token")
			assert.Equal(t, "client-id.apps.googleusercontent.com", *audience)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1089", id.Subject)
			assert.Equal(t, tt.wantEmail, id.Email)
			if tt.wantName {
				require.NotNil(t, id.Name)
				assert.Equal(t, "Dealer", *id.Name)
				require.NotNil(t, id.Picture)
			} else {
				assert.Nil(t, id.Name)
			}
		})
	}
}
