package vehicle

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type fakeStore struct {
	cars          map[int64]Car
	nextID        int64
	manufacturers map[string]Manufacturer
	deleteErr     error
}

func newFakeStore(cars ...Car) *fakeStore {
	s := &fakeStore{
		cars:          make(map[int64]Car),
		manufacturers: make(map[string]Manufacturer),
		nextID:        1,
	}
	for _, c := range cars {
		s.cars[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	return s
}

func (s *fakeStore) Find(_ context.Context, id int64) (*Car, error) {
	c, ok := s.cars[id]
	if !ok {
		return nil, ErrCarNotFound
	}
	copied := c
	return &copied, nil
}

func (s *fakeStore) FindAll(_ context.Context) ([]Car, error) {
	ids := make([]int64, 0, len(s.cars))
	for id := range s.cars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	cars := make([]Car, 0, len(ids))
	for _, id := range ids {
		cars = append(cars, s.cars[id])
	}
	return cars, nil
}

func (s *fakeStore) Save(_ context.Context, car *Car) error {
	if car.ID == 0 {
		car.ID = s.nextID
		s.nextID++
	}
	s.cars[car.ID] = *car
	return nil
}

func (s *fakeStore) Delete(_ context.Context, car *Car) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.cars, car.ID)
	return nil
}

func (s *fakeStore) FindManufacturer(_ context.Context, name string) (*Manufacturer, error) {
	m, ok := s.manufacturers[name]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *fakeStore) SaveManufacturer(_ context.Context, m *Manufacturer) error {
	s.manufacturers[m.Name] = *m
	return nil
}

type fakePriceClient struct {
	getPriceFn  func(ctx context.Context, vehicleID int64) (*PriceQuote, error)
	getPricesFn func(ctx context.Context, vehicleIDs []int64) (map[int64]PriceQuote, error)
	setPriceFn  func(ctx context.Context, vehicleID int64, currency string, amount *float64) (*PriceQuote, error)
	deleteErr   error

	getPriceCalls  int
	getPricesCalls int
	setPriceCalls  int
	deleteCalls    int
}

func (f *fakePriceClient) GetPrice(ctx context.Context, vehicleID int64) (*PriceQuote, error) {
	f.getPriceCalls++
	if f.getPriceFn == nil {
		return nil, errors.New("pricing unavailable")
	}
	return f.getPriceFn(ctx, vehicleID)
}

func (f *fakePriceClient) GetPrices(ctx context.Context, vehicleIDs []int64) (map[int64]PriceQuote, error) {
	f.getPricesCalls++
	if f.getPricesFn == nil {
		return nil, errors.New("pricing unavailable")
	}
	return f.getPricesFn(ctx, vehicleIDs)
}

func (f *fakePriceClient) SetPrice(ctx context.Context, vehicleID int64, currency string, amount *float64) (*PriceQuote, error) {
	f.setPriceCalls++
	if f.setPriceFn == nil {
		return nil, errors.New("pricing unavailable")
	}
	return f.setPriceFn(ctx, vehicleID, currency, amount)
}

func (f *fakePriceClient) DeletePrice(_ context.Context, _ int64) error {
	f.deleteCalls++
	return f.deleteErr
}

type fakeMapsClient struct {
	resolveFn      func(ctx context.Context, lat, lon float64) (*Address, error)
	resolveBatchFn func(ctx context.Context, coords []Coordinate) (map[string]Address, error)

	resolveCalls      int
	resolveBatchCalls int
	lastBatchSize     int
}

func (f *fakeMapsClient) Resolve(ctx context.Context, lat, lon float64) (*Address, error) {
	f.resolveCalls++
	if f.resolveFn == nil {
		return nil, errors.New("maps unavailable")
	}
	return f.resolveFn(ctx, lat, lon)
}

func (f *fakeMapsClient) ResolveBatch(ctx context.Context, coords []Coordinate) (map[string]Address, error) {
	f.resolveBatchCalls++
	f.lastBatchSize = len(coords)
	if f.resolveBatchFn == nil {
		return nil, errors.New("maps unavailable")
	}
	return f.resolveBatchFn(ctx, coords)
}

func springfield() Address {
	return Address{Address: "1 Main St", City: "Springfield", State: "PA", Zip: "19064"}
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakePriceClient{}, &fakeMapsClient{}, nil)

	if _, err := svc.Get(context.Background(), 99); !errors.Is(err, ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
}

func TestGetEnrichesPriceAndAddress(t *testing.T) {
	store := newFakeStore(Car{
		ID:        7,
		Condition: ConditionUsed,
		Location:  Location{Lat: 40.0, Lon: -75.0},
	})
	prices := &fakePriceClient{
		getPriceFn: func(_ context.Context, vehicleID int64) (*PriceQuote, error) {
			if vehicleID != 7 {
				t.Fatalf("unexpected vehicleID: %d", vehicleID)
			}
			return &PriceQuote{VehicleID: 7, Currency: "USD", Price: 21000.00}, nil
		},
	}
	maps := &fakeMapsClient{
		resolveFn: func(_ context.Context, lat, lon float64) (*Address, error) {
			if lat != 40.0 || lon != -75.0 {
				t.Fatalf("unexpected coordinate: %v, %v", lat, lon)
			}
			addr := springfield()
			return &addr, nil
		},
	}

	svc := NewService(store, prices, maps, nil)
	car, err := svc.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if car.Price != "USD 21000.00" {
		t.Errorf("expected price USD 21000.00, got %q", car.Price)
	}
	if car.Location.Address != "1 Main St" || car.Location.City != "Springfield" ||
		car.Location.State != "PA" || car.Location.Zip != "19064" {
		t.Errorf("unexpected address: %+v", car.Location)
	}
}

func TestGetDegradesWhenPricingDown(t *testing.T) {
	store := newFakeStore(Car{ID: 1, Location: Location{Lat: 1, Lon: 2}})
	maps := &fakeMapsClient{
		resolveFn: func(_ context.Context, _, _ float64) (*Address, error) {
			addr := springfield()
			return &addr, nil
		},
	}

	svc := NewService(store, &fakePriceClient{}, maps, nil)
	car, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("enrichment failure must not fail the read: %v", err)
	}
	if car.Price != ConsultPrice {
		t.Errorf("expected fallback price, got %q", car.Price)
	}
	if car.Location.City != "Springfield" {
		t.Errorf("address lookup should still apply, got %+v", car.Location)
	}
}

func TestGetDegradesWhenMapsDown(t *testing.T) {
	store := newFakeStore(Car{ID: 1, Location: Location{Lat: 1.5, Lon: 2.5}})
	prices := &fakePriceClient{
		getPriceFn: func(_ context.Context, _ int64) (*PriceQuote, error) {
			return &PriceQuote{VehicleID: 1, Currency: "USD", Price: 9000}, nil
		},
	}

	svc := NewService(store, prices, &fakeMapsClient{}, nil)
	car, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("enrichment failure must not fail the read: %v", err)
	}
	if car.Price != "USD 9000.00" {
		t.Errorf("expected USD 9000.00, got %q", car.Price)
	}
	// 地址解析失败：坐标原样保留，地址字段为空
	if car.Location.Lat != 1.5 || car.Location.Lon != 2.5 {
		t.Errorf("coordinates must be preserved, got %+v", car.Location)
	}
	if car.Location.Address != "" {
		t.Errorf("address should stay unresolved, got %q", car.Location.Address)
	}
}

func TestListBatchCallCounts(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		cars := make([]Car, 0, n)
		for i := 1; i <= n; i++ {
			cars = append(cars, Car{ID: int64(i), Location: Location{Lat: float64(i), Lon: float64(i)}})
		}
		store := newFakeStore(cars...)
		prices := &fakePriceClient{
			getPricesFn: func(_ context.Context, _ []int64) (map[int64]PriceQuote, error) {
				return map[int64]PriceQuote{}, nil
			},
		}
		maps := &fakeMapsClient{
			resolveBatchFn: func(_ context.Context, _ []Coordinate) (map[string]Address, error) {
				return map[string]Address{}, nil
			},
		}

		svc := NewService(store, prices, maps, nil)
		if _, err := svc.List(context.Background()); err != nil {
			t.Fatalf("List with %d cars: %v", n, err)
		}

		wantCalls := 1
		if n == 0 {
			wantCalls = 0
		}
		if prices.getPricesCalls != wantCalls {
			t.Errorf("n=%d: expected %d batch price calls, got %d", n, wantCalls, prices.getPricesCalls)
		}
		if maps.resolveBatchCalls != wantCalls {
			t.Errorf("n=%d: expected %d batch address calls, got %d", n, wantCalls, maps.resolveBatchCalls)
		}
		if prices.getPriceCalls != 0 || maps.resolveCalls != 0 {
			t.Errorf("n=%d: list must not fan out to single lookups", n)
		}
	}
}

func TestListJoinsAndDegradesPerRecord(t *testing.T) {
	store := newFakeStore(
		Car{ID: 1, Location: Location{Lat: 40.0, Lon: -75.0}},
		Car{ID: 2, Location: Location{Lat: 41.0, Lon: -70.0}},
	)
	prices := &fakePriceClient{
		getPricesFn: func(_ context.Context, ids []int64) (map[int64]PriceQuote, error) {
			if len(ids) != 2 {
				t.Fatalf("expected 2 ids, got %v", ids)
			}
			// 只有 1 号车有报价
			return map[int64]PriceQuote{1: {VehicleID: 1, Currency: "EUR", Price: 18500.5}}, nil
		},
	}
	maps := &fakeMapsClient{
		resolveBatchFn: func(_ context.Context, _ []Coordinate) (map[string]Address, error) {
			return map[string]Address{"40:-75": springfield()}, nil
		},
	}

	svc := NewService(store, prices, maps, nil)
	cars, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cars) != 2 {
		t.Fatalf("expected 2 cars, got %d", len(cars))
	}

	if cars[0].Price != "EUR 18500.50" {
		t.Errorf("car 1: expected EUR 18500.50, got %q", cars[0].Price)
	}
	if cars[0].Location.City != "Springfield" {
		t.Errorf("car 1: expected resolved address, got %+v", cars[0].Location)
	}
	if cars[1].Price != ConsultPrice {
		t.Errorf("car 2: expected fallback price, got %q", cars[1].Price)
	}
	if cars[1].Location.Address != "" {
		t.Errorf("car 2: address should stay unresolved, got %+v", cars[1].Location)
	}
}

func TestListSharedCoordinateDedup(t *testing.T) {
	store := newFakeStore(
		Car{ID: 1, Location: Location{Lat: 0, Lon: 0}},
		Car{ID: 2, Location: Location{Lat: 0, Lon: 0}},
	)
	prices := &fakePriceClient{
		getPricesFn: func(_ context.Context, _ []int64) (map[int64]PriceQuote, error) {
			return map[int64]PriceQuote{}, nil
		},
	}
	maps := &fakeMapsClient{
		resolveBatchFn: func(_ context.Context, coords []Coordinate) (map[string]Address, error) {
			return map[string]Address{"0:0": springfield()}, nil
		},
	}

	svc := NewService(store, prices, maps, nil)
	cars, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if maps.lastBatchSize != 1 {
		t.Errorf("shared coordinate should be deduped, batch size %d", maps.lastBatchSize)
	}
	for _, car := range cars {
		if car.Location.City != "Springfield" {
			t.Errorf("car %d: expected shared resolution, got %+v", car.ID, car.Location)
		}
	}
}

func TestSaveNewCarRegistersManufacturer(t *testing.T) {
	store := newFakeStore()
	prices := &fakePriceClient{
		getPriceFn: func(_ context.Context, _ int64) (*PriceQuote, error) {
			return &PriceQuote{Currency: "USD", Price: 12000}, nil
		},
	}
	maps := &fakeMapsClient{
		resolveFn: func(_ context.Context, _, _ float64) (*Address, error) {
			addr := springfield()
			return &addr, nil
		},
	}

	svc := NewService(store, prices, maps, nil)
	car := &Car{
		Condition: ConditionNew,
		Details: Details{
			Model:        "Impala",
			Manufacturer: Manufacturer{Code: 101, Name: "Chevrolet"},
		},
		Location: Location{Lat: 40.0, Lon: -75.0},
	}

	saved, err := svc.Save(context.Background(), car, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", saved.ID)
	}
	if _, ok := store.manufacturers["Chevrolet"]; !ok {
		t.Errorf("manufacturer should be registered on create")
	}
	if saved.Price != "USD 12000.00" {
		t.Errorf("expected pulled price, got %q", saved.Price)
	}
	if saved.Location.City != "Springfield" {
		t.Errorf("expected resolved address, got %+v", saved.Location)
	}
}

func TestSaveWithSuppliedPricePushes(t *testing.T) {
	store := newFakeStore()
	amount := 30500.0
	prices := &fakePriceClient{
		setPriceFn: func(_ context.Context, vehicleID int64, currency string, got *float64) (*PriceQuote, error) {
			if currency != "USD" || got == nil || *got != amount {
				t.Fatalf("unexpected price push: %s %v", currency, got)
			}
			return &PriceQuote{VehicleID: vehicleID, Currency: currency, Price: *got}, nil
		},
	}
	maps := &fakeMapsClient{
		resolveFn: func(_ context.Context, _, _ float64) (*Address, error) {
			addr := springfield()
			return &addr, nil
		},
	}

	svc := NewService(store, prices, maps, nil)
	car := &Car{Condition: ConditionNew, Location: Location{Lat: 1, Lon: 1}}

	saved, err := svc.Save(context.Background(), car, &PriceUpdate{Currency: "USD", Amount: &amount})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if prices.setPriceCalls != 1 {
		t.Fatalf("expected one price push, got %d", prices.setPriceCalls)
	}
	if prices.getPriceCalls != 0 {
		t.Fatalf("price pull should be skipped when pushing")
	}
	if saved.Price != "USD 30500.00" {
		t.Errorf("expected USD 30500.00, got %q", saved.Price)
	}
}

func TestSaveUpdateOverlaysDetailsAndLocation(t *testing.T) {
	store := newFakeStore(Car{
		ID:        3,
		Condition: ConditionNew,
		Details:   Details{Model: "Old Model"},
		Location:  Location{Lat: 1, Lon: 1},
	})
	svc := NewService(store, &fakePriceClient{}, &fakeMapsClient{}, nil)

	candidate := &Car{
		ID:        3,
		Condition: ConditionUsed,
		Details:   Details{Model: "New Model"},
		Location:  Location{Lat: 9, Lon: 9},
	}
	saved, err := svc.Save(context.Background(), candidate, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Details.Model != "New Model" || saved.Location.Lat != 9 {
		t.Errorf("expected overlaid details/location, got %+v", saved)
	}

	// 落库内容与返回一致（瞬态字段除外）
	stored := store.cars[3]
	if stored.Details.Model != "New Model" || stored.Condition != ConditionUsed {
		t.Errorf("store should hold updated record, got %+v", stored)
	}
}

func TestSaveUpdateMissingCar(t *testing.T) {
	svc := NewService(newFakeStore(), &fakePriceClient{}, &fakeMapsClient{}, nil)

	_, err := svc.Save(context.Background(), &Car{ID: 42, Condition: ConditionNew}, nil)
	if !errors.Is(err, ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakePriceClient{}, &fakeMapsClient{}, nil)

	car := &Car{
		Condition: ConditionUsed,
		Details:   Details{Model: "Model 3", Manufacturer: Manufacturer{Code: 7, Name: "Tesla"}},
		Location:  Location{Lat: 37.4, Lon: -122.1},
	}
	saved, err := svc.Save(context.Background(), car, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := svc.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get after Save: %v", err)
	}
	if got.Details.Model != "Model 3" || got.Location.Lat != 37.4 || got.Location.Lon != -122.1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakePriceClient{}, &fakeMapsClient{}, nil)

	if _, err := svc.Delete(context.Background(), 5); !errors.Is(err, ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
}

func TestDeleteSucceedsWhenPriceDeleteFails(t *testing.T) {
	store := newFakeStore(Car{ID: 5})
	prices := &fakePriceClient{deleteErr: errors.New("pricing down")}

	svc := NewService(store, prices, &fakeMapsClient{}, nil)
	status, err := svc.Delete(context.Background(), 5)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if status != StatusSuccess {
		t.Fatalf("expected Success despite price delete failure, got %q", status)
	}
	if _, ok := store.cars[5]; ok {
		t.Fatalf("car should be gone from store")
	}
	if prices.deleteCalls != 1 {
		t.Fatalf("price delete should be attempted once, got %d", prices.deleteCalls)
	}
}
