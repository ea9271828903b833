// Package dynamodb stores users in a DynamoDB table keyed by user_id with a
// global secondary index on email.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ovaflus/ovaflus-auth/awsutil"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
	"github.com/ovaflus/ovaflus-auth/store"
)

func init() {
	store.RegisterFactory(store.DriverDynamoDB, func(ctx context.Context, cfg store.Config, log *logger.Logger) (store.Store, error) {
		awsCfg, err := awsutil.Load(ctx, cfg.DynamoDB.AWS)
		if err != nil {
			return nil, err
		}
		client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			o.BaseEndpoint = cfg.DynamoDB.AWS.BaseEndpoint()
		})
		return New(client, cfg.DynamoDB.Table, cfg.DynamoDB.EmailIndex, log, WithTimeout(cfg.Timeout)), nil
	})
}

// API is the subset of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, in *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *awsdynamodb.UpdateItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, in *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error)
}

// item is the table's attribute layout. Timestamps are RFC 3339 strings.
type item struct {
	UserID               string `dynamodbav:"user_id"`
	Email                string `dynamodbav:"email"`
	Name                 string `dynamodbav:"name"`
	PasswordHash         string `dynamodbav:"password_hash"`
	Currency             string `dynamodbav:"currency,omitempty"`
	NotificationsEnabled bool   `dynamodbav:"notifications_enabled"`
	CreatedAt            string `dynamodbav:"created_at"`
	UpdatedAt            string `dynamodbav:"updated_at"`
}

func toItem(u *store.User) item {
	return item{
		UserID:               u.UserID,
		Email:                u.Email,
		Name:                 u.Name,
		PasswordHash:         u.PasswordHash,
		Currency:             u.Currency,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (it item) user() *store.User {
	created, _ := time.Parse(time.RFC3339, it.CreatedAt)
	updated, _ := time.Parse(time.RFC3339, it.UpdatedAt)
	return &store.User{
		UserID:               it.UserID,
		Email:                it.Email,
		Name:                 it.Name,
		PasswordHash:         it.PasswordHash,
		Currency:             it.Currency,
		NotificationsEnabled: it.NotificationsEnabled,
		CreatedAt:            created,
		UpdatedAt:            updated,
	}
}

// Store implements store.Store on DynamoDB.
type Store struct {
	api        API
	table      string
	emailIndex string
	timeout    time.Duration
	now        func() time.Time
	log        *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each call to the table. Defaults to store.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

var _ store.Store = (*Store)(nil)

// New creates a Store over api.
func New(api API, table, emailIndex string, log *logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		api:        api,
		table:      table,
		emailIndex: emailIndex,
		timeout:    store.DefaultTimeout,
		now:        time.Now,
		log:        log.WithComponent("store.dynamodb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// span starts a traced operation bounded by the store timeout.
func (s *Store) span(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	ctx, span := observability.StartSpan(ctx, observability.SpanStoreQuery,
		attribute.String(observability.AttrOperation, op))
	return ctx, func(err error) {
		if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrEmailTaken) {
			observability.SetSpanError(span, err)
		}
		span.End()
		cancel()
	}
}

// Create checks the email index, then puts the item if user_id is unused.
// Two concurrent sign-ups for one email can both pass the check.
func (s *Store) Create(ctx context.Context, user *store.User) (err error) {
	ctx, end := s.span(ctx, "create")
	defer func() { end(err) }()

	if _, err := s.FindByEmail(ctx, user.Email); err == nil {
		return store.ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	now := s.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	av, err := attributevalue.MarshalMap(toItem(user))
	if err != nil {
		return fmt.Errorf("dynamodb: marshal user: %w", err)
	}

	_, err = s.api.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("dynamodb: user id %s already exists: %w", user.UserID, err)
		}
		return fmt.Errorf("dynamodb: put user: %w", err)
	}
	return nil
}

// FindByEmail implements store.Store.
func (s *Store) FindByEmail(ctx context.Context, email string) (u *store.User, err error) {
	ctx, end := s.span(ctx, "find_by_email")
	defer func() { end(err) }()

	out, err := s.api.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(s.emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: query email index: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, store.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return nil, fmt.Errorf("dynamodb: unmarshal user: %w", err)
	}
	// The index may project only keys; fetch the full item by id.
	if it.PasswordHash == "" {
		return s.Get(ctx, it.UserID)
	}
	return it.user(), nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, userID string) (u *store.User, err error) {
	ctx, end := s.span(ctx, "get")
	defer func() { end(err) }()

	out, err := s.api.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("dynamodb: unmarshal user: %w", err)
	}
	return it.user(), nil
}

// UpdateProfile implements store.Store.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update store.ProfileUpdate) (u *store.User, err error) {
	ctx, end := s.span(ctx, "update_profile")
	defer func() { end(err) }()

	sets := []string{"updated_at = :updated_at"}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
	}
	names := map[string]string{}
	if update.Name != nil {
		sets = append(sets, "#name = :name")
		names["#name"] = "name"
		values[":name"] = &types.AttributeValueMemberS{Value: *update.Name}
	}
	if update.Currency != nil {
		sets = append(sets, "currency = :currency")
		values[":currency"] = &types.AttributeValueMemberS{Value: *update.Currency}
	}
	if update.NotificationsEnabled != nil {
		sets = append(sets, "notifications_enabled = :notifications_enabled")
		values[":notifications_enabled"] = &types.AttributeValueMemberBOOL{Value: *update.NotificationsEnabled}
	}

	in := &awsdynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}

	out, err := s.api.UpdateItem(ctx, in)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("dynamodb: update user: %w", err)
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("dynamodb: unmarshal user: %w", err)
	}
	return it.user(), nil
}

// Ping describes the table.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.api.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("dynamodb: describe %s: %w", s.table, err)
	}
	return nil
}
