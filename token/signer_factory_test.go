package token_test

import (
	"testing"

	"github.com/jrsteele09/go-session-server/token"
	"github.com/stretchr/testify/require"
)

func TestNewSignerPair(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		wantErr error
	}{
		{name: "distinct secrets", access: accessSecret, refresh: refreshSecret},
		{name: "missing access secret", refresh: refreshSecret, wantErr: token.ErrMissingSecret},
		{name: "missing refresh secret", access: accessSecret, wantErr: token.ErrMissingSecret},
		{name: "shared secret", access: accessSecret, refresh: accessSecret, wantErr: token.ErrSharedSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access, refresh, err := token.NewSignerPair(tt.access, tt.refresh)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, access)
				require.Nil(t, refresh)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "HS256", access.GetSigningMethod().Alg())
			require.Equal(t, "HS256", refresh.GetSigningMethod().Alg())
		})
	}
}

func TestNewCodecFromSecrets(t *testing.T) {
	_, err := token.NewCodecFromSecrets(accessSecret, accessSecret)
	require.ErrorIs(t, err, token.ErrSharedSecret)

	codec, err := token.NewCodecFromSecrets(accessSecret, refreshSecret)
	require.NoError(t, err)

	raw, err := codec.SignRefresh("user-1", "session-1")
	require.NoError(t, err)
	_, err = codec.VerifyAccess(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken, "a refresh token never verifies as an access token")

	claims, err := codec.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, token.RefreshClaims{UserID: "user-1", SessionID: "session-1"}, claims)
}
