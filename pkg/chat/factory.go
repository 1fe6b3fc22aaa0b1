package chat

import (
	"fmt"

	"github.com/rhuss/probelauf/pkg/api"
	"github.com/rhuss/probelauf/pkg/config"
	"github.com/rhuss/probelauf/pkg/credential"
)

// NewFromCheck constructs a Client bound to the check's endpoint and
// authenticated according to its auth mode: the normalized key as bearer
// token, or a short-lived assertion signed with the api_secret for
// auth: jwt. No network call is made.
func NewFromCheck(check *config.Check) (*Client, error) {
	token := check.APIKey

	if check.Auth == config.AuthJWT {
		signer, err := credential.NewTokenSigner(check.APIKey, check.APISecret, credential.DefaultTokenTTL)
		if err != nil {
			return nil, err
		}
		token, err = signer.Token()
		if err != nil {
			return nil, api.NewClientConstructionError(fmt.Sprintf("signing bearer token: %s", err.Error()))
		}
	}

	return New(Config{
		BaseURL: check.Endpoint,
		Token:   token,
	})
}
