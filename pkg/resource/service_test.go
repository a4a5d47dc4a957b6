package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestService 使用 sqlmock 与 mysql 方言初始化服务
func newTestService(t *testing.T, defs map[string]Definition) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if defs == nil {
		defs = DefaultDefinitions()
	}
	r, err := NewRegistry(defs)
	require.NoError(t, err)
	return NewService(conn, r, DialectFor("mysql")), mock
}

func TestServiceList(t *testing.T) {
	svc, mock := newTestService(t, nil)

	mock.ExpectQuery("SELECT * FROM `view_ProductsPricesRegions` WHERE `CodigoProducto` LIKE ? ESCAPE '\\\\' ORDER BY `CodigoProducto` DESC LIMIT ? OFFSET ?").
		WithArgs("AB%", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"productId", "CodigoProducto"}).
			AddRow("P-3", "AB3").
			AddRow("P-4", "AB4"))
	mock.ExpectQuery("SELECT COUNT(1) AS cnt FROM `view_ProductsPricesRegions` WHERE `CodigoProducto` LIKE ? ESCAPE '\\\\'").
		WithArgs("AB%").
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(5))

	page, err := svc.List(context.Background(), "productos", QuerySpec{
		Page:      2,
		PageSize:  2,
		Sort:      "CodigoProducto",
		Direction: Desc,
		Filters:   map[string]string{"CodigoProducto": "AB", "Unknown": "x"},
		Match:     MatchStarts,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "P-3", cast.ToString(page.Items[0]["productId"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceListUnknownResource(t *testing.T) {
	svc, mock := newTestService(t, nil)
	_, err := svc.List(context.Background(), "nope", QuerySpec{})
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = svc.GetByID(context.Background(), "nope", "1", "")
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = svc.GetOrder(context.Background(), "nope", "c", "b")
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = svc.ListOrders(context.Background(), "nope", "c")
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceListQueryError(t *testing.T) {
	svc, mock := newTestService(t, nil)
	sqlText := "SELECT * FROM `getCustomers` ORDER BY `customer_id` ASC LIMIT ? OFFSET ?"
	mock.ExpectQuery(sqlText).
		WithArgs(50, 0).
		WillReturnError(errors.New("Invalid object name 'getCustomers'"))

	_, err := svc.List(context.Background(), "customers", QuerySpec{PageSize: DefaultPageSize})
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "items", qe.Op)
	assert.Equal(t, sqlText, qe.SQL)
	assert.Equal(t, []any{50, 0}, qe.Args)
	assert.False(t, IsClientError(err))
	assert.NotContains(t, err.Error(), "getCustomers` ORDER")
}

func TestServiceGetByID(t *testing.T) {
	svc, mock := newTestService(t, nil)

	mock.ExpectQuery("SELECT * FROM `vw_inventories` WHERE `code` = ? LIMIT 1").
		WithArgs("INV-1").
		WillReturnRows(sqlmock.NewRows([]string{"code", "aviableQuantity"}).AddRow("INV-1", 3))
	item, err := svc.GetByID(context.Background(), "inventories", "INV-1", "")
	require.NoError(t, err)
	assert.Equal(t, "INV-1", cast.ToString(item["code"]))

	mock.ExpectQuery("SELECT * FROM `vw_inventories` WHERE `code` = ? LIMIT 1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"code", "aviableQuantity"}))
	item, err = svc.GetByID(context.Background(), "inventories", "missing", "code")
	assert.NoError(t, err)
	assert.Nil(t, item)

	_, err = svc.GetByID(context.Background(), "inventories", "x", "spec")
	assert.ErrorIs(t, err, ErrInvalidIdColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func orderDefs() map[string]Definition {
	defs := DefaultDefinitions()
	o := defs["orders"]
	o.FallbackViews = []string{"vw_AllOrders_Legacy"}
	defs["orders"] = o
	return defs
}

func TestServiceGetOrderFallsBack(t *testing.T) {
	svc, mock := newTestService(t, orderDefs())

	mock.ExpectQuery("SELECT * FROM `vw_AllOrders_Bamboo` WHERE `customerCode` = ? AND `BillCode` = ?").
		WithArgs("C1", "B1").
		WillReturnError(errors.New("view unavailable"))
	mock.ExpectQuery("SELECT * FROM `vw_AllOrders_Legacy` WHERE `customerCode` = ? AND `BillCode` = ?").
		WithArgs("C1", "B1").
		WillReturnRows(sqlmock.NewRows([]string{"BillCode", "customerCode"}).AddRow("B1", "C1"))

	order, err := svc.GetOrder(context.Background(), "orders", "C1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "B1", cast.ToString(order["BillCode"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceGetOrderNotFound(t *testing.T) {
	svc, mock := newTestService(t, orderDefs())

	mock.ExpectQuery("SELECT * FROM `vw_AllOrders_Bamboo` WHERE `customerCode` = ? AND `BillCode` = ?").
		WithArgs("C1", "B9").
		WillReturnRows(sqlmock.NewRows([]string{"BillCode"}))
	mock.ExpectQuery("SELECT * FROM `vw_AllOrders_Legacy` WHERE `customerCode` = ? AND `BillCode` = ?").
		WithArgs("C1", "B9").
		WillReturnError(errors.New("view unavailable"))

	_, err := svc.GetOrder(context.Background(), "orders", "C1", "B9")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceListOrders(t *testing.T) {
	svc, mock := newTestService(t, orderDefs())

	mock.ExpectQuery("SELECT * FROM `vw_AllOrders_Bamboo` WHERE `customerCode` = ? ORDER BY `CreateDate` DESC").
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"BillCode"}))

	orders, err := svc.ListOrders(context.Background(), "orders", "C1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceListOrdersAllCandidatesFail(t *testing.T) {
	svc, mock := newTestService(t, orderDefs())

	for _, v := range []string{"vw_AllOrders_Bamboo", "vw_AllOrders_Legacy"} {
		mock.ExpectQuery("SELECT * FROM `" + v + "` WHERE `customerCode` = ? ORDER BY `CreateDate` DESC").
			WithArgs("C1").
			WillReturnError(errors.New("view unavailable"))
	}
	_, err := svc.ListOrders(context.Background(), "orders", "C1")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServicePing(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery("SELECT 1 AS ok").WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(1))
	assert.NoError(t, svc.Ping(context.Background()))

	mock.ExpectQuery("SELECT 1 AS ok").WillReturnError(errors.New("down"))
	assert.Error(t, svc.Ping(context.Background()))
}
