package token

import "github.com/pkg/errors"

var (
	ErrMissingSecret = errors.New("signing secret is empty")
	ErrSharedSecret  = errors.New("access and refresh secrets must differ")
)

// NewSignerPair builds the access and refresh signers from their configured secrets.
func NewSignerPair(accessSecret, refreshSecret string) (access Signer, refresh Signer, err error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, nil, ErrMissingSecret
	}
	if accessSecret == refreshSecret {
		return nil, nil, ErrSharedSecret
	}
	return NewHMACSigner(accessSecret), NewHMACSigner(refreshSecret), nil
}

// NewCodecFromSecrets checks the secrets before building an HS256 codec.
func NewCodecFromSecrets(accessSecret, refreshSecret string, options ...CodecOption) (*Codec, error) {
	access, refresh, err := NewSignerPair(accessSecret, refreshSecret)
	if err != nil {
		return nil, errors.Wrap(err, "token.NewCodecFromSecrets")
	}
	return NewCodec(access, refresh, options...), nil
}
