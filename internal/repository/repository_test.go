package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/iliyamo/bistro-boss-server/internal/model"
)

func TestUserRepoCreateIfAbsent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("existing email is not inserted again", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mz_bossDB.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "a@b.c"}}))

		res, created, err := NewUserRepo(mt.DB).CreateIfAbsent(ctx, model.User{Email: "a@b.c"})
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Nil(mt, res.InsertedID)
	})

	mt.Run("new email is inserted", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "mz_bossDB.users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		res, created, err := NewUserRepo(mt.DB).CreateIfAbsent(ctx, model.User{Email: "new@b.c", Name: "New"})
		require.NoError(mt, err)
		assert.True(mt, created)
		assert.IsType(mt, primitive.ObjectID{}, res.InsertedID)
	})

	mt.Run("concurrent duplicate folds into exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "mz_bossDB.users", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key"}),
		)

		res, created, err := NewUserRepo(mt.DB).CreateIfAbsent(ctx, model.User{Email: "race@b.c"})
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Nil(mt, res.InsertedID)
	})
}

func TestUserRepoFindByEmailNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mz_bossDB.users", mtest.FirstBatch))
		_, err := NewUserRepo(mt.DB).FindByEmail(context.Background(), "ghost@b.c")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestUserRepoRejectsMalformedID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("promote", func(mt *mtest.T) {
		_, err := NewUserRepo(mt.DB).PromoteToAdmin(context.Background(), "not-an-id")
		assert.ErrorIs(mt, err, ErrInvalidID)
	})
}

func TestPaymentRepoRevenue(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("no payments yields zero", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mz_bossDB.payments", mtest.FirstBatch))
		rev, err := NewPaymentRepo(mt.DB).Revenue(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, 0.0, rev)
	})

	mt.Run("sum of prices", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mz_bossDB.payments", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: nil}, {Key: "totalRevenue", Value: 15.0}}))
		rev, err := NewPaymentRepo(mt.DB).Revenue(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, 15.0, rev)
	})
}

func TestPaymentRepoOrderStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("decodes category rows", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mz_bossDB.payments", mtest.FirstBatch,
			bson.D{{Key: "category", Value: "salad"}, {Key: "quantity", Value: int32(3)}, {Key: "revenue", Value: 29.5}},
			bson.D{{Key: "category", Value: "pizza"}, {Key: "quantity", Value: int32(1)}, {Key: "revenue", Value: 12.0}},
		))
		stats, err := NewPaymentRepo(mt.DB).OrderStats(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []model.CategoryStat{
			{Category: "salad", Quantity: 3, Revenue: 29.5},
			{Category: "pizza", Quantity: 1, Revenue: 12},
		}, stats)
	})
}

func TestOrderStatsJoinsStringAndObjectIDs(t *testing.T) {
	raw, err := bson.MarshalExtJSON(bson.D{{Key: "pipeline", Value: orderStatsPipeline("menu")}}, false, false)
	require.NoError(t, err)
	js := string(raw)
	assert.Contains(t, js, `"from":"menu"`)
	assert.Contains(t, js, `"$toString":"$_id"`)
	assert.Contains(t, js, `"$$itemId"`)
	assert.NotContains(t, js, "localField")
}

func TestPaymentRepoMarkSuccess(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("pending record transitions", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)}, bson.E{Key: "nModified", Value: int32(1)}))
		ok, err := NewPaymentRepo(mt.DB).MarkSuccess(ctx, "tx-1")
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("settled record is left alone", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}))
		ok, err := NewPaymentRepo(mt.DB).MarkSuccess(ctx, "tx-1")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}

func TestCartRepoDeleteManyReportsMissing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("partial", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "mz_bossDB.carts", mtest.FirstBatch, bson.D{{Key: "_id", Value: a}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		res, err := NewCartRepo(mt.DB).DeleteMany(context.Background(), []string{a.Hex(), b.Hex(), "bogus"})
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, res.DeletedCount)
		assert.ElementsMatch(mt, []string{"bogus", b.Hex()}, res.Missing)
	})

	mt.Run("nothing valid skips the store", func(mt *mtest.T) {
		res, err := NewCartRepo(mt.DB).DeleteMany(context.Background(), []string{"x"})
		require.NoError(mt, err)
		assert.Zero(mt, res.DeletedCount)
		assert.Equal(mt, []string{"x"}, res.Missing)
	})
}

func TestMenuRepoGetMatchesStringAndObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	f := anyIDFilter(oid.Hex())
	in := f["_id"].(bson.M)["$in"].(bson.A)
	assert.Equal(t, bson.A{oid.Hex(), oid}, in)

	assert.Equal(t, bson.M{"_id": "642c155b2c4774f05c36eeaa-x"}, anyIDFilter("642c155b2c4774f05c36eeaa-x"))
}
