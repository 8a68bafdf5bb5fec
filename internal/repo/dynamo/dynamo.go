// Package dynamo implements the service-order repository on DynamoDB.
//
// Single-table layout: partition key PK holds the generated order id, sort
// key SK the customer id, and a global secondary index keyed on SK serves
// by-customer queries (locationId equality is applied as a filter
// expression on that index). Update and soft-delete are conditional on
// attribute_exists(PK) so a missing row surfaces as NotFound instead of an
// upsert. Query pagination is drained via LastEvaluatedKey before results
// are returned, so callers always observe a complete set.
package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fieldserve/go-orders-backend/internal/domain"
	"github.com/fieldserve/go-orders-backend/internal/keys"
)

// Client is the slice of the DynamoDB API this store consumes. It is
// satisfied by *dynamodb.Client and by test doubles.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store is a DynamoDB-backed service-order repository.
type Store struct {
	client Client
	table  string
	index  string

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// New returns a Store bound to the given table and customer GSI.
func New(client Client, table, index string) *Store {
	return &Store{client: client, table: table, index: index, now: time.Now}
}

// Insert stores a new order item. Optional attributes absent from f are
// omitted from the item entirely (attributevalue omitempty on nil pointers).
func (s *Store) Insert(ctx context.Context, k keys.Key, locationID *string, f domain.Fields) (*domain.Order, error) {
	order := domain.NewOrder(k.ID, k.CustomerID, locationID, f, domain.Timestamp(s.now()))

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, domain.StoreWriteFailed(err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return nil, domain.StoreWriteFailed(err)
	}
	return &order, nil
}

// Update merges the field set over the addressed item with a single
// conditional UpdateItem: SET clauses for updatedAt, the required
// identifiers, and each optional field present in f, guarded by
// attribute_exists(PK).
func (s *Store) Update(ctx context.Context, k keys.Key, f domain.Fields) (*domain.Order, error) {
	upd := expression.
		Set(expression.Name("updatedAt"), expression.Value(domain.Timestamp(s.now()))).
		Set(expression.Name("unitId"), expression.Value(f.UnitID)).
		Set(expression.Name("actionId"), expression.Value(f.ActionID))

	for name, v := range presentFields(f) {
		upd = upd.Set(expression.Name(name), expression.Value(v))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(upd).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return nil, domain.StoreWriteFailed(err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyAttributes(k),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, domain.NotFound("service order not found")
		}
		return nil, domain.StoreWriteFailed(err)
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &order); err != nil {
		return nil, domain.StoreWriteFailed(err)
	}
	return &order, nil
}

// SoftDelete sets deletedAt on the addressed item, conditional on its
// existence. No other attribute changes and the row is never removed.
func (s *Store) SoftDelete(ctx context.Context, k keys.Key) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(
			expression.Name("deletedAt"),
			expression.Value(domain.Timestamp(s.now())),
		)).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return domain.StoreWriteFailed(err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyAttributes(k),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return domain.NotFound("service order not found")
		}
		return domain.StoreWriteFailed(err)
	}
	return nil
}

// GetOne fetches the item addressed by k.
func (s *Store) GetOne(ctx context.Context, k keys.Key) (*domain.Order, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttributes(k),
	})
	if err != nil {
		return nil, domain.StoreReadFailed(err)
	}
	if len(out.Item) == 0 {
		return nil, domain.NotFound("service order not found")
	}

	var order domain.Order
	if err := attributevalue.UnmarshalMap(out.Item, &order); err != nil {
		return nil, domain.StoreReadFailed(err)
	}
	return &order, nil
}

// ListByCustomer queries the customer GSI and drains every page before
// returning, so the caller receives the complete result set rather than the
// first page. Soft-deleted rows are included.
func (s *Store) ListByCustomer(ctx context.Context, customerID string, locationID *string) ([]domain.Order, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("SK").Equal(expression.Value(customerID)))
	if locationID != nil {
		builder = builder.WithFilter(
			expression.Name("locationId").Equal(expression.Value(*locationID)),
		)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, domain.StoreReadFailed(err)
	}

	orders := []domain.Order{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(s.index),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, domain.StoreReadFailed(err)
		}

		var page []domain.Order
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, domain.StoreReadFailed(err)
		}
		orders = append(orders, page...)

		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// keyAttributes renders the composite key in store form.
func keyAttributes(k keys.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: k.ID},
		"SK": &types.AttributeValueMemberS{Value: k.CustomerID},
	}
}

// presentFields lists the optional attributes present in f, keyed by store
// attribute name.
func presentFields(f domain.Fields) map[string]any {
	m := map[string]any{}
	if f.ServiceDate != nil {
		m["serviceDate"] = *f.ServiceDate
	}
	if f.ServiceTime != nil {
		m["serviceTime"] = *f.ServiceTime
	}
	if f.ServiceDuration != nil {
		m["serviceDuration"] = *f.ServiceDuration
	}
	if f.ServiceStatus != nil {
		m["serviceStatus"] = *f.ServiceStatus
	}
	if f.EmployeeID != nil {
		m["employeeId"] = *f.EmployeeID
	}
	if f.ServiceNotes != nil {
		m["serviceNotes"] = *f.ServiceNotes
	}
	return m
}

// isConditionalCheckFailed reports whether err is DynamoDB's conditional
// check failure, i.e. the addressed item does not exist.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
