package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/fieldserve/go-orders-backend/internal/domain"
	"github.com/fieldserve/go-orders-backend/internal/keys"
)

// fakeClient captures inputs and plays back canned outputs, one Query output
// per call so pagination can be exercised.
type fakeClient struct {
	putIn    *dynamodb.PutItemInput
	getIn    *dynamodb.GetItemInput
	updateIn *dynamodb.UpdateItemInput
	queryIn  []*dynamodb.QueryInput

	putErr    error
	getOut    *dynamodb.GetItemOutput
	getErr    error
	updateOut *dynamodb.UpdateItemOutput
	updateErr error
	queryOut  []*dynamodb.QueryOutput
	queryErr  error
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateOut == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateOut, nil
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryIn = append(f.queryIn, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	call := len(f.queryIn) - 1
	if call >= len(f.queryOut) {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.queryOut[call], nil
}

func newTestStore(c *fakeClient) *Store {
	s := New(c, "service-orders", "customer-index")
	s.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func testKey() keys.Key {
	return keys.Key{ID: uuid.NewString(), CustomerID: "C1"}
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, bool) {
	s, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func TestInsertOmitsAbsentAttributes(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	k := testKey()

	notes := "bring ladder"
	order, err := store.Insert(context.Background(), k, nil, domain.Fields{
		UnitID:       "U1",
		ActionID:     "A1",
		ServiceNotes: &notes,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	item := client.putIn.Item
	if pk, _ := stringAttr(item, "PK"); pk != k.ID {
		t.Fatalf("PK = %q, want %s", pk, k.ID)
	}
	if sk, _ := stringAttr(item, "SK"); sk != "C1" {
		t.Fatalf("SK = %q", sk)
	}
	if got, _ := stringAttr(item, "serviceNotes"); got != notes {
		t.Fatalf("serviceNotes = %q", got)
	}
	for _, absent := range []string{"locationId", "serviceDate", "serviceTime", "serviceDuration", "serviceStatus", "employeeId", "updatedAt", "deletedAt"} {
		if _, ok := item[absent]; ok {
			t.Fatalf("absent field %s was written to the item", absent)
		}
	}
	if _, ok := stringAttr(item, "createdAt"); !ok {
		t.Fatal("createdAt missing from item")
	}
	if order.ID != k.ID || order.CreatedAt == "" {
		t.Fatalf("returned order = %+v", order)
	}
}

func TestInsertStoresLocation(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	loc := "L1"

	if _, err := store.Insert(context.Background(), testKey(), &loc, domain.Fields{UnitID: "U1", ActionID: "A1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, _ := stringAttr(client.putIn.Item, "locationId"); got != "L1" {
		t.Fatalf("locationId = %q", got)
	}
}

func TestInsertPutFailure(t *testing.T) {
	client := &fakeClient{putErr: context.DeadlineExceeded}
	store := newTestStore(client)

	_, err := store.Insert(context.Background(), testKey(), nil, domain.Fields{UnitID: "U1", ActionID: "A1"})
	if kind, _ := domain.KindOf(err); kind != domain.KindStoreWriteFailed {
		t.Fatalf("kind = %v, want StoreWriteFailed", kind)
	}
}

func TestUpdateIsConditionalOnExistence(t *testing.T) {
	client := &fakeClient{updateOut: &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: uuid.NewString()},
			"SK":        &types.AttributeValueMemberS{Value: "C1"},
			"unitId":    &types.AttributeValueMemberS{Value: "U2"},
			"actionId":  &types.AttributeValueMemberS{Value: "A2"},
			"createdAt": &types.AttributeValueMemberS{Value: "2026-01-01T00:00:00Z"},
			"updatedAt": &types.AttributeValueMemberS{Value: "2026-03-14T09:00:00Z"},
		},
	}}
	store := newTestStore(client)

	order, err := store.Update(context.Background(), testKey(), domain.Fields{UnitID: "U2", ActionID: "A2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	in := client.updateIn
	if in.ConditionExpression == nil || *in.ConditionExpression == "" {
		t.Fatal("update missing existence condition")
	}
	if in.ReturnValues != types.ReturnValueAllNew {
		t.Fatalf("ReturnValues = %v", in.ReturnValues)
	}
	if order.UnitID != "U2" || order.UpdatedAt == nil {
		t.Fatalf("order = %+v", order)
	}
}

func TestRepeatedUpdateDiffersOnlyInTimestamp(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)

	tick := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	k := testKey()
	fields := domain.Fields{UnitID: "U1", ActionID: "A1"}

	if _, err := store.Update(context.Background(), k, fields); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	first := client.updateIn
	if _, err := store.Update(context.Background(), k, fields); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	second := client.updateIn

	if *first.UpdateExpression != *second.UpdateExpression {
		t.Fatalf("update expressions diverged:\n%s\n%s", *first.UpdateExpression, *second.UpdateExpression)
	}

	ts1 := timestampValue(t, first)
	ts2 := timestampValue(t, second)
	if !ts2.After(ts1) {
		t.Fatalf("updatedAt did not advance: %s then %s", ts1, ts2)
	}
}

// timestampValue picks the one expression value that is not a field payload,
// i.e. the updatedAt timestamp.
func timestampValue(t *testing.T, in *dynamodb.UpdateItemInput) time.Time {
	t.Helper()
	payload := map[string]bool{"U1": true, "A1": true}
	var found *time.Time
	for _, v := range in.ExpressionAttributeValues {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok || payload[s.Value] {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, s.Value)
		if err != nil {
			t.Fatalf("unexpected expression value %q: %v", s.Value, err)
		}
		if found != nil {
			t.Fatalf("more than one timestamp value in %v", in.ExpressionAttributeValues)
		}
		found = &ts
	}
	if found == nil {
		t.Fatal("no timestamp value in update expression")
	}
	return *found
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{}}
	store := newTestStore(client)

	_, err := store.Update(context.Background(), testKey(), domain.Fields{UnitID: "U1", ActionID: "A1"})
	if kind, _ := domain.KindOf(err); kind != domain.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", kind)
	}
}

func TestSoftDeleteSetsOnlyDeletedAt(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	k := testKey()

	if err := store.SoftDelete(context.Background(), k); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	in := client.updateIn
	if in.ConditionExpression == nil {
		t.Fatal("soft delete missing existence condition")
	}
	names := make([]string, 0, len(in.ExpressionAttributeNames))
	for _, n := range in.ExpressionAttributeNames {
		names = append(names, n)
	}
	if len(names) != 2 {
		t.Fatalf("expression names = %v, want deletedAt and the condition key", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["deletedAt"] || !seen["PK"] {
		t.Fatalf("expression names = %v", names)
	}
	if pk, _ := stringAttr(in.Key, "PK"); pk != k.ID {
		t.Fatalf("key PK = %q", pk)
	}
}

func TestSoftDeleteMissingRowIsNotFound(t *testing.T) {
	client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{}}
	store := newTestStore(client)

	err := store.SoftDelete(context.Background(), testKey())
	if kind, _ := domain.KindOf(err); kind != domain.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", kind)
	}
}

func TestGetOne(t *testing.T) {
	k := testKey()
	client := &fakeClient{getOut: &dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: k.ID},
			"SK":        &types.AttributeValueMemberS{Value: "C1"},
			"unitId":    &types.AttributeValueMemberS{Value: "U1"},
			"actionId":  &types.AttributeValueMemberS{Value: "A1"},
			"createdAt": &types.AttributeValueMemberS{Value: "2026-01-01T00:00:00Z"},
		},
	}}
	store := newTestStore(client)

	order, err := store.GetOne(context.Background(), k)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if order.ID != k.ID || order.UnitID != "U1" {
		t.Fatalf("order = %+v", order)
	}
	if order.ServiceNotes != nil {
		t.Fatal("absent attribute decoded as non-nil")
	}
}

func TestGetOneEmptyItemIsNotFound(t *testing.T) {
	store := newTestStore(&fakeClient{})

	_, err := store.GetOne(context.Background(), testKey())
	if kind, _ := domain.KindOf(err); kind != domain.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", kind)
	}
}

func queryItem(id, customer string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: id},
		"SK":        &types.AttributeValueMemberS{Value: customer},
		"unitId":    &types.AttributeValueMemberS{Value: "U1"},
		"actionId":  &types.AttributeValueMemberS{Value: "A1"},
		"createdAt": &types.AttributeValueMemberS{Value: "2026-01-01T00:00:00Z"},
	}
}

func TestListByCustomerDrainsPages(t *testing.T) {
	first, second, third := uuid.NewString(), uuid.NewString(), uuid.NewString()
	client := &fakeClient{queryOut: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{queryItem(first, "C1"), queryItem(second, "C1")},
			LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: second}},
		},
		{
			Items: []map[string]types.AttributeValue{queryItem(third, "C1")},
		},
	}}
	store := newTestStore(client)

	orders, err := store.ListByCustomer(context.Background(), "C1", nil)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("got %d orders, want 3", len(orders))
	}
	if len(client.queryIn) != 2 {
		t.Fatalf("query calls = %d, want 2", len(client.queryIn))
	}
	if client.queryIn[0].ExclusiveStartKey != nil {
		t.Fatal("first page should start without a start key")
	}
	if client.queryIn[1].ExclusiveStartKey == nil {
		t.Fatal("second page should resume from LastEvaluatedKey")
	}
	if *client.queryIn[0].IndexName != "customer-index" {
		t.Fatalf("index = %q", *client.queryIn[0].IndexName)
	}
}

func TestListByCustomerLocationFilter(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)
	loc := "L1"

	orders, err := store.ListByCustomer(context.Background(), "C1", &loc)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Fatalf("orders = %v, want empty non-nil slice", orders)
	}
	if client.queryIn[0].FilterExpression == nil {
		t.Fatal("location filter missing from query")
	}
}

func TestListByCustomerNoFilterWithoutLocation(t *testing.T) {
	client := &fakeClient{}
	store := newTestStore(client)

	if _, err := store.ListByCustomer(context.Background(), "C1", nil); err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if client.queryIn[0].FilterExpression != nil {
		t.Fatal("unexpected filter expression on unfiltered list")
	}
}

func TestListByCustomerReadFailure(t *testing.T) {
	store := newTestStore(&fakeClient{queryErr: context.DeadlineExceeded})

	_, err := store.ListByCustomer(context.Background(), "C1", nil)
	if kind, _ := domain.KindOf(err); kind != domain.KindStoreReadFailed {
		t.Fatalf("kind = %v, want StoreReadFailed", kind)
	}
}
