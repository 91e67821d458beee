package auth

import (
	"fmt"

	"github.com/saturnines/nexus-smapi/pkg/config"
	"github.com/saturnines/nexus-smapi/pkg/errors"
)

// missingSection reports an auth type configured without its settings block.
func missingSection(authType config.AuthType, section string) error {
	return errors.WrapError(
		fmt.Errorf("auth.%s is required for %s auth", section, authType),
		errors.ErrConfiguration,
		"create auth handler",
	)
}

func createAPIKeyAuth(authConfig *config.Auth) (Handler, error) {
	key := authConfig.APIKey
	if key == nil {
		return nil, missingSection(authConfig.Type, "api_key")
	}
	return NewAPIKeyAuth(key.Header, key.QueryParam, key.Value), nil
}

func createBearerAuth(authConfig *config.Auth) (Handler, error) {
	if authConfig.Bearer == nil {
		return nil, missingSection(authConfig.Type, "bearer")
	}
	return NewBearerAuth(authConfig.Bearer.Token), nil
}
