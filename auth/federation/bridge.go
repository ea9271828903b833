package federation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
)

// FederatedTokens are the pool tokens returned to the client.
type FederatedTokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int32  `json:"expires_in"`
}

// Bridge signs verified identities into the federated user pool.
type Bridge struct {
	idp      IdentityProvider
	pool     auth.FederatedConfig
	secret   []byte
	timeout  time.Duration
	log      *logger.Logger
	metrics  *observability.AuthMetrics
	now      func() time.Time
	password func() (string, error)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// WithMetrics records sign-in outcomes.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// WithClock overrides the nonce clock.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// NewBridge creates a Bridge over idp for the given pool.
func NewBridge(idp IdentityProvider, pool auth.FederatedConfig, cfg Config, opts ...Option) (*Bridge, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	b := &Bridge{
		idp:      idp,
		pool:     pool,
		secret:   []byte(cfg.NonceSecret),
		timeout:  cfg.Timeout,
		log:      logger.Nop(),
		now:      time.Now,
		password: password.GenerateProviderPassword,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("federation")
	return b, nil
}

// SignInViaIdentity provisions email in the pool if needed and returns pool
// tokens for it. The email must already be verified by the caller.
func (b *Bridge) SignInViaIdentity(ctx context.Context, email string) (*FederatedTokens, error) {
	start := b.now()
	ctx, span := observability.StartSpan(ctx, observability.SpanFederationSignIn)
	defer span.End()

	tokens, err := b.signIn(ctx, email)
	kind := ""
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			kind = fe.Kind.String()
			span.SetAttributes(attribute.String(observability.AttrStep, string(fe.Step)))
		}
		span.SetAttributes(attribute.String(observability.AttrErrorKind, kind))
		observability.SetSpanError(span, err)
		b.log.WithContext(ctx).
			WithFields(logger.Fields(logger.FieldEmail, logger.MaskEmail(email))).
			Warn("Federated sign-in failed", logger.Fields(
				logger.FieldKind, kind,
				"provider_code", providerCode(err),
			))
	}
	b.metrics.RecordFederation(ctx, kind, b.now().Sub(start))
	return tokens, err
}

func (b *Bridge) signIn(ctx context.Context, email string) (*FederatedTokens, error) {
	if err := b.provision(ctx, email); err != nil {
		return nil, err
	}
	if err := b.resetPassword(ctx, email); err != nil {
		return nil, err
	}

	session, err := b.initiate(ctx, email)
	if err != nil {
		return nil, err
	}
	return b.respond(ctx, email, session)
}

func (b *Bridge) provision(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.idp.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId: aws.String(b.pool.UserPoolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
		MessageAction: types.MessageActionTypeSuppress,
	})
	if err == nil {
		b.log.Info("Federated user provisioned", logger.Fields("email", logger.MaskEmail(email)))
		return nil
	}
	var exists *types.UsernameExistsException
	if errors.As(err, &exists) {
		return nil
	}
	return stepError(KindProvisioningFailed, StepCreateUser, err)
}

func (b *Bridge) resetPassword(ctx context.Context, email string) error {
	pw, err := b.password()
	if err != nil {
		return &Error{Kind: KindConfigurationFailed, Step: StepSetPassword, Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err = b.idp.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(b.pool.UserPoolID),
		Username:   aws.String(email),
		Password:   aws.String(pw),
		Permanent:  true,
	})
	if err != nil {
		return stepError(KindConfigurationFailed, StepSetPassword, err)
	}
	return nil
}

func (b *Bridge) initiate(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.idp.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId:     aws.String(b.pool.UserPoolID),
		ClientId:       aws.String(b.pool.AppClientID),
		AuthFlow:       types.AuthFlowTypeCustomAuth,
		AuthParameters: map[string]string{"USERNAME": email},
	})
	if err != nil {
		return "", stepError(KindNoSession, StepInitiateAuth, err)
	}
	if out.Session == nil || *out.Session == "" {
		return "", &Error{Kind: KindNoSession, Step: StepInitiateAuth}
	}
	return *out.Session, nil
}

func (b *Bridge) respond(ctx context.Context, email, session string) (*FederatedTokens, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.idp.AdminRespondToAuthChallenge(ctx, &cip.AdminRespondToAuthChallengeInput{
		UserPoolId:    aws.String(b.pool.UserPoolID),
		ClientId:      aws.String(b.pool.AppClientID),
		ChallengeName: types.ChallengeNameTypeCustomChallenge,
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME": email,
			"ANSWER":   Nonce(b.secret, email, b.now()),
		},
	})
	if err != nil {
		return nil, stepError(KindNoAuthResult, StepRespond, err)
	}
	res := out.AuthenticationResult
	if res == nil {
		return nil, &Error{Kind: KindNoAuthResult, Step: StepRespond}
	}
	return &FederatedTokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// providerCode extracts the provider's error code for logs.
func providerCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// String describes the pool the bridge targets, for startup logs.
func (b *Bridge) String() string {
	return fmt.Sprintf("federation bridge (pool %s, client %s)", b.pool.UserPoolID, b.pool.AppClientID)
}
