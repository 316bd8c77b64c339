package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/aniicone/cafe-api/app/models"
)

func mockDB(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestCounterNext(t *testing.T) {
	mt := mockDB(t)

	mt.Run("returns the incremented value", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: OrderSequence}, {Key: "seq", Value: int64(42)}}},
		))

		n, err := NewCounterRepository(mt.DB).Next(context.Background(), OrderSequence)
		require.NoError(mt, err)
		assert.Equal(mt, int64(42), n)
	})

	mt.Run("propagates command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))

		_, err := NewCounterRepository(mt.DB).Next(context.Background(), OrderSequence)
		assert.Error(mt, err)
	})
}

func TestCounterRaiseTo(t *testing.T) {
	mt := mockDB(t)

	mt.Run("upserts with $max", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.NoError(mt, NewCounterRepository(mt.DB).RaiseTo(context.Background(), OrderSequence, 10))
	})
}

func TestSyncOrderCounter(t *testing.T) {
	mt := mockDB(t)

	mt.Run("raises the sequence to the stored order count", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "cafe.orders", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(5)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, SyncOrderCounter(context.Background(), mt.DB))

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 2)
		assert.Equal(mt, "aggregate", started[0].CommandName)
		assert.Equal(mt, "update", started[1].CommandName)

		cmd := started[1].Command
		assert.Equal(mt, OrderSequence, cmd.Lookup("updates", "0", "q", "_id").StringValue())
		assert.Equal(mt, int64(5), cmd.Lookup("updates", "0", "u", "$max", "seq").Int64())
		assert.True(mt, cmd.Lookup("updates", "0", "upsert").Boolean())
	})

	mt.Run("count failure stops before touching the counter", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))

		assert.Error(mt, SyncOrderCounter(context.Background(), mt.DB))
		assert.Len(mt, mt.GetAllStartedEvents(), 1)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mockDB(t)

	mt.Run("email uniqueness skips empty emails", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		require.NoError(mt, EnsureIndexes(context.Background(), mt.DB))

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 3)
		email := started[0].Command.Lookup("indexes", "1").Document()
		assert.Equal(mt, EmailIndex, email.Lookup("name").StringValue())
		assert.True(mt, email.Lookup("unique").Boolean())
		assert.Equal(mt, "", email.Lookup("partialFilterExpression", "email", "$gt").StringValue())
	})

	mt.Run("a users conflict still builds the other collections", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 86, Name: "IndexKeySpecsConflict", Message: "existing index email_1"}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		err := EnsureIndexes(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "users indexes")
		assert.Len(mt, mt.GetAllStartedEvents(), 3)
	})
}

func TestUserRepository(t *testing.T) {
	mt := mockDB(t)

	mt.Run("find by external id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "cafe.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "externalId", Value: "uid-1"},
			{Key: "email", Value: "a@b.c"},
			{Key: "name", Value: "Asha"},
			{Key: "role", Value: "admin"},
		}))

		u, err := NewUserRepository(mt.DB).FindByExternalID(context.Background(), "uid-1")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "Asha", u.Name)
		assert.Equal(mt, "admin", u.Role)
	})

	mt.Run("missing user is ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "cafe.users", mtest.FirstBatch))

		_, err := NewUserRepository(mt.DB).FindByExternalID(context.Background(), "ghost")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{ExternalID: "uid-2", Email: "x@y.z", Name: "User", Role: models.RoleCustomer}
		require.NoError(mt, NewUserRepository(mt.DB).Create(context.Background(), u))
		assert.False(mt, u.ID.IsZero())
		assert.False(mt, u.CreatedAt.IsZero())
	})

	mt.Run("duplicate email is ErrDuplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := NewUserRepository(mt.DB).Create(context.Background(), &models.User{ExternalID: "uid-3"})
		assert.True(mt, errors.Is(err, ErrDuplicate))
	})

	mt.Run("set role on missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewUserRepository(mt.DB).SetRole(context.Background(), "ghost", models.RoleAdmin)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestOrderRepository(t *testing.T) {
	mt := mockDB(t)

	mt.Run("list decodes newest-first batch", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "cafe.orders", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "orderNumber", Value: "ANI2410150002"}, {Key: "customerId", Value: "uid-1"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "orderNumber", Value: "ANI2410150001"}, {Key: "customerId", Value: "uid-1"}},
		))

		orders, err := NewOrderRepository(mt.DB).List(context.Background(), "uid-1")
		require.NoError(mt, err)
		require.Len(mt, orders, 2)
		assert.Equal(mt, "ANI2410150002", orders[0].OrderNumber)
	})

	mt.Run("empty list is not nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "cafe.orders", mtest.FirstBatch))

		orders, err := NewOrderRepository(mt.DB).List(context.Background(), "")
		require.NoError(mt, err)
		assert.NotNil(mt, orders)
		assert.Empty(mt, orders)
	})

	mt.Run("set field on missing order", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := NewOrderRepository(mt.DB).SetField(context.Background(), primitive.NewObjectID(), "status", models.StatusReady)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "cafe.orders", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}))

		n, err := NewOrderRepository(mt.DB).Count(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), n)
	})
}

func TestMenuRepository(t *testing.T) {
	mt := mockDB(t)

	mt.Run("update returns the new document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Mocha"},
			{Key: "price", Value: 120.0},
			{Key: "isAvailable", Value: true},
		}}))

		name := "Mocha"
		item, err := NewMenuRepository(mt.DB).Update(context.Background(), id, models.MenuItemPatch{Name: &name})
		require.NoError(mt, err)
		assert.Equal(mt, "Mocha", item.Name)
		assert.Equal(mt, 120.0, item.Price)
	})

	mt.Run("find by ids skips the round trip when empty", func(mt *mtest.T) {
		items, err := NewMenuRepository(mt.DB).FindByIDs(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, items)
	})
}

func TestToSetDocKeepsOnlyProvidedFields(t *testing.T) {
	price := 0.0
	set, err := toSetDoc(models.MenuItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"price": 0.0}, set)
}
