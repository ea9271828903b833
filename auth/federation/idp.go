package federation

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"

	"github.com/ovaflus/ovaflus-auth/awsutil"
)

// IdentityProvider is the admin surface of the user pool the bridge drives.
type IdentityProvider interface {
	AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminInitiateAuth(ctx context.Context, in *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
	AdminRespondToAuthChallenge(ctx context.Context, in *cip.AdminRespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.AdminRespondToAuthChallengeOutput, error)
}

var _ IdentityProvider = (*cip.Client)(nil)

// NewCognitoClient builds a pool client with SDK retries disabled.
func NewCognitoClient(ctx context.Context, cfg awsutil.Config) (*cip.Client, error) {
	loaded, err := awsutil.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cip.NewFromConfig(loaded, func(o *cip.Options) {
		o.Retryer = aws.NopRetryer{}
		o.BaseEndpoint = cfg.BaseEndpoint()
	}), nil
}
