package services

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/event"
	"github.com/aniicone/cafe-api/pkg/testkit"
)

var orderNumberRE = regexp.MustCompile(`^ANI\d{6}\d{4,}$`)

type orderFixture struct {
	svc    *OrderService
	orders *testkit.OrderStore
	latte  *models.MenuItem
	bus    *event.Bus
}

func newOrderFixture() *orderFixture {
	latte := &models.MenuItem{Name: "Latte", Price: 50, Category: models.CategoryCoffee, IsAvailable: true}
	menu := testkit.NewMenuStore(latte)
	orders := testkit.NewOrderStore()
	bus := event.NewBus()
	svc := NewOrderService(orders, menu, &testkit.Sequence{}, bus)
	svc.now = func() time.Time { return time.Date(2024, 10, 15, 9, 0, 0, 0, time.Local) }
	return &orderFixture{svc: svc, orders: orders, latte: latte, bus: bus}
}

func (f *orderFixture) input(qty int, total float64) CreateOrderInput {
	return CreateOrderInput{
		Items:       []OrderItemInput{{MenuItem: f.latte.ID.Hex(), Quantity: qty, Price: f.latte.Price}},
		TotalAmount: &total,
	}
}

var (
	alice = &auth.Principal{LocalID: "l1", ExternalID: "alice", Role: auth.RoleCustomer}
	bob   = &auth.Principal{LocalID: "l2", ExternalID: "bob", Role: auth.RoleCustomer}
	admin = &auth.Principal{LocalID: "l3", ExternalID: "root", Role: auth.RoleAdmin}
)

func TestOrderNumberFormat(t *testing.T) {
	day := time.Date(2025, 1, 7, 23, 0, 0, 0, time.Local)
	assert.Equal(t, "ANI2501070001", OrderNumber(day, 1))
	assert.Equal(t, "ANI25010712345", OrderNumber(day, 12345))
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture()

	var mu sync.Mutex
	var fired []string
	f.bus.Listen(EventOrderCreated, func(name string, _ interface{}) {
		mu.Lock()
		fired = append(fired, name)
		mu.Unlock()
	})

	d, err := f.svc.Create(context.Background(), f.input(2, 50), alice)
	require.NoError(t, err)

	assert.Equal(t, "alice", d.CustomerID)
	assert.Equal(t, 50.0, d.TotalAmount, "total is stored as supplied")
	assert.Equal(t, models.StatusPending, d.Status)
	assert.Equal(t, models.PaymentPending, d.PaymentStatus)
	assert.Regexp(t, orderNumberRE, d.OrderNumber)
	assert.Equal(t, "ANI2410150001", d.OrderNumber)
	require.Len(t, d.Items, 1)
	require.NotNil(t, d.Items[0].MenuItem)
	assert.Equal(t, "Latte", d.Items[0].MenuItem.Name)

	f.bus.Wait()
	mu.Lock()
	assert.Equal(t, []string{EventOrderCreated}, fired)
	mu.Unlock()
}

func TestCreateOrderSequenceIncreases(t *testing.T) {
	f := newOrderFixture()

	var last int
	for i := 0; i < 5; i++ {
		d, err := f.svc.Create(context.Background(), f.input(1, 50), alice)
		require.NoError(t, err)
		seq, err := strconv.Atoi(d.OrderNumber[9:])
		require.NoError(t, err)
		assert.Greater(t, seq, last)
		last = seq
	}
}

func TestCreateOrderSequenceContinuesAcrossMidnight(t *testing.T) {
	f := newOrderFixture()
	clock := time.Date(2024, 10, 15, 23, 59, 0, 0, time.Local)
	f.svc.now = func() time.Time { return clock }

	first, err := f.svc.Create(context.Background(), f.input(1, 50), alice)
	require.NoError(t, err)
	assert.Equal(t, "ANI2410150001", first.OrderNumber)

	clock = clock.Add(2 * time.Minute)
	second, err := f.svc.Create(context.Background(), f.input(1, 50), alice)
	require.NoError(t, err)
	assert.Equal(t, "ANI2410160002", second.OrderNumber, "date changes but the sequence does not reset")
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateOrderInput{Items: f.input(1, 1).Items}, alice)
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	total := 10.0
	_, err = f.svc.Create(ctx, CreateOrderInput{TotalAmount: &total}, alice)
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = f.svc.Create(ctx, CreateOrderInput{
		Items:       []OrderItemInput{{MenuItem: "nope", Quantity: 1}},
		TotalAmount: &total,
	}, alice)
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = f.svc.Create(ctx, f.input(0, 10), alice)
	assert.True(t, apperr.Is(err, apperr.ValidationError))
}

func TestGetOrderOwnership(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	d, err := f.svc.Create(ctx, f.input(1, 50), alice)
	require.NoError(t, err)
	id := d.ID.Hex()

	_, err = f.svc.Get(ctx, id, alice)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, id, admin)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, id, bob)
	assert.True(t, apperr.Is(err, apperr.AccessDenied))

	_, err = f.svc.Get(ctx, "not-an-id", alice)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.svc.Get(ctx, "64f0c0ffee0000000000beef", alice)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	first, _ := f.svc.Create(ctx, f.input(1, 50), alice)
	_, _ = f.svc.Create(ctx, f.input(1, 50), bob)
	second, _ := f.svc.Create(ctx, f.input(3, 150), alice)

	mine, err := f.svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.OrderNumber, mine[0].OrderNumber, "newest first")
	assert.Equal(t, first.OrderNumber, mine[1].OrderNumber)
	assert.Equal(t, "Latte", mine[0].Items[0].MenuItem.Name)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	d, _ := f.svc.Create(ctx, f.input(1, 50), alice)

	_, err := f.svc.UpdateStatus(ctx, d.ID.Hex(), "Baking")
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = f.svc.UpdateStatus(ctx, "64f0c0ffee0000000000beef", models.StatusReady)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	got, err := f.svc.UpdateStatus(ctx, d.ID.Hex(), models.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	// The default policy allows going back.
	got, err = f.svc.UpdateStatus(ctx, d.ID.Hex(), models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestUpdateStatusHonoursPolicy(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	d, _ := f.svc.Create(ctx, f.input(1, 50), alice)

	f.svc.SetTransitionPolicy(func(from, to string) bool {
		return !(from == models.StatusPending && to == models.StatusCompleted)
	})

	_, err := f.svc.UpdateStatus(ctx, d.ID.Hex(), models.StatusCompleted)
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = f.svc.UpdateStatus(ctx, d.ID.Hex(), models.StatusPreparing)
	assert.NoError(t, err)
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	d, _ := f.svc.Create(ctx, f.input(1, 50), alice)
	id := d.ID.Hex()

	_, err := f.svc.UpdatePaymentStatus(ctx, id, "Refunded", alice)
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = f.svc.UpdatePaymentStatus(ctx, id, models.PaymentPaid, bob)
	assert.True(t, apperr.Is(err, apperr.AccessDenied))

	got, err := f.svc.UpdatePaymentStatus(ctx, id, models.PaymentPaid, alice)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	got, err = f.svc.UpdatePaymentStatus(ctx, id, models.PaymentFailed, admin)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
}
