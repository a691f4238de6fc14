// Package bounces is the DynamoDB-backed bounce store. The bulk pipeline
// reads it through the Lookup method; writes come from the delivery feedback
// loop (SES notifications) and from operational tooling via Record.
package bounces

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	appconfig "github.com/ToldYaOnce/kx-email-utils/internal/config"
	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

// API is the slice of the DynamoDB client the store uses, abstracted for
// testability.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store reads and writes bounce records in a single DynamoDB table.
//
// Layout: PK = "BOUNCE#<normalized email>", SK = RFC3339 timestamp, so a
// reverse query with Limit 1 yields the most recent record per address. A
// GSI keyed on bounce_type/SK serves the by-type time-range query.
type Store struct {
	client    API
	tableName string
	indexName string
}

type bounceItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Email      string `dynamodbav:"email"`
	BounceType string `dynamodbav:"bounce_type"`
	Reason     string `dynamodbav:"reason,omitempty"`
}

const timeFormat = "2006-01-02T15:04:05Z"

// NewStore builds a store from AWS configuration.
func NewStore(ctx context.Context, awsCfg appconfig.AWSConfig, cfg appconfig.BounceConfig) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if awsCfg.AccessKey != "" && awsCfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKey, awsCfg.SecretKey, ""),
		))
	} else if awsCfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(awsCfg.Profile))
	}

	loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewStoreFromClient(dynamodb.NewFromConfig(loaded), cfg.TableName, cfg.IndexName), nil
}

// NewStoreFromClient wraps an existing DynamoDB client.
func NewStoreFromClient(client API, tableName, indexName string) *Store {
	return &Store{client: client, tableName: tableName, indexName: indexName}
}

func bouncePK(email string) string {
	return "BOUNCE#" + email
}

// Lookup returns the most recent bounce record for an email, or nil when the
// address has no bounce history. The caller passes a normalized (lowercased)
// address.
func (s *Store) Lookup(ctx context.Context, email string) (*domain.BounceRecord, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: bouncePK(email)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("querying bounce history: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	record, err := unmarshalRecord(result.Items[0])
	if err != nil {
		return nil, err
	}
	return record, nil
}

// QueryByType returns all bounce records of one type in a time range,
// newest first, via the type/timestamp GSI.
func (s *Store) QueryByType(ctx context.Context, bounceType domain.BounceType, from, to time.Time) ([]domain.BounceRecord, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.indexName),
		KeyConditionExpression: aws.String("bounce_type = :bt AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bt":   &types.AttributeValueMemberS{Value: string(bounceType)},
			":from": &types.AttributeValueMemberS{Value: from.UTC().Format(timeFormat)},
			":to":   &types.AttributeValueMemberS{Value: to.UTC().Format(timeFormat)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying bounces by type: %w", err)
	}

	records := make([]domain.BounceRecord, 0, len(result.Items))
	for _, item := range result.Items {
		record, err := unmarshalRecord(item)
		if err != nil {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// Record writes one bounce record.
func (s *Store) Record(ctx context.Context, record domain.BounceRecord) error {
	item := bounceItem{
		PK:         bouncePK(record.Email),
		SK:         record.Timestamp.UTC().Format(timeFormat),
		Email:      record.Email,
		BounceType: string(record.BounceType),
		Reason:     record.Reason,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling bounce item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting bounce item: %w", err)
	}
	return nil
}

func unmarshalRecord(item map[string]types.AttributeValue) (*domain.BounceRecord, error) {
	var dbItem bounceItem
	if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
		return nil, fmt.Errorf("unmarshaling bounce item: %w", err)
	}

	ts, err := time.Parse(timeFormat, dbItem.SK)
	if err != nil {
		return nil, fmt.Errorf("parsing bounce timestamp %q: %w", dbItem.SK, err)
	}

	return &domain.BounceRecord{
		Email:      dbItem.Email,
		BounceType: domain.BounceType(dbItem.BounceType),
		Reason:     dbItem.Reason,
		Timestamp:  ts,
	}, nil
}
