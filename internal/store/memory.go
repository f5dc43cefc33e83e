package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farmmart/farmmart-api/internal/models"
)

// Memory is an in-process Store guarded by a single mutex. It backs the
// test suite and the FARMMART_STORE=memory dev mode; checkout holds the
// lock for its whole validate-then-apply sequence, which gives the same
// all-or-nothing behavior as the MySQL transaction.
type Memory struct {
	mu sync.Mutex

	users     map[int64]models.User
	products  map[int64]models.Product
	cartLines map[int64]models.CartLine
	orders    map[int64]models.Order

	nextUserID  int64
	nextProduct int64
	nextLineID  int64
	nextOrderID int64
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[int64]models.User),
		products:    make(map[int64]models.Product),
		cartLines:   make(map[int64]models.CartLine),
		orders:      make(map[int64]models.Order),
		nextUserID:  1,
		nextProduct: 1,
		nextLineID:  1,
		nextOrderID: 1,
	}
}

//
// --- Users ---
//

func (s *Memory) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *Memory) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Memory) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

//
// --- Catalog ---
//

func (s *Memory) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProduct
	s.nextProduct++
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return nil
}

func (s *Memory) ProductByID(_ context.Context, id int64) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Memory) ProductsByFarmer(_ context.Context, farmerID int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var products []models.Product
	for _, p := range s.products {
		if p.FarmerID == farmerID {
			products = append(products, p)
		}
	}
	sortProducts(products)
	return products, nil
}

func (s *Memory) SearchProducts(_ context.Context, name, category string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var products []models.Product
	for _, p := range s.products {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	sortProducts(products)
	return products, nil
}

func sortProducts(products []models.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
}

func (s *Memory) DeleteProduct(_ context.Context, productID, farmerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || p.FarmerID != farmerID {
		return false, nil
	}
	for _, o := range s.orders {
		if o.ProductID == productID {
			return false, ErrProductHasOrders
		}
	}
	delete(s.products, productID)
	// Cart lines go with the product, mirroring the cascade on the
	// cart foreign key in the MySQL schema.
	for id, l := range s.cartLines {
		if l.ProductID == productID {
			delete(s.cartLines, id)
		}
	}
	return true, nil
}

//
// --- Cart ---
//

// lineFor finds the unique line for a (customer, product) pair.
func (s *Memory) lineFor(customerID, productID int64) (models.CartLine, bool) {
	for _, l := range s.cartLines {
		if l.CustomerID == customerID && l.ProductID == productID {
			return l, true
		}
	}
	return models.CartLine{}, false
}

func (s *Memory) linesFor(customerID int64) []models.CartLine {
	var lines []models.CartLine
	for _, l := range s.cartLines {
		if l.CustomerID == customerID {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

func (s *Memory) CartLines(_ context.Context, customerID int64) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.linesFor(customerID)
	for i := range lines {
		p := s.products[lines[i].ProductID]
		lines[i].ProductName = p.Name
		lines[i].UnitPrice = p.Price
		lines[i].LineTotal = p.Price.Mul(decimalFromInt(lines[i].Quantity))
	}
	return lines, nil
}

func (s *Memory) AddToCart(_ context.Context, customerID, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return ErrNotFound
	}
	if existing, ok := s.lineFor(customerID, productID); ok {
		existing.Quantity += quantity
		s.cartLines[existing.ID] = existing
		return nil
	}
	line := models.CartLine{
		ID:         s.nextLineID,
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}
	s.nextLineID++
	s.cartLines[line.ID] = line
	return nil
}

func (s *Memory) UpdateCartLine(_ context.Context, customerID, productID int64, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lineFor(customerID, productID)
	if !ok {
		return false, nil
	}
	if quantity == 0 {
		delete(s.cartLines, line.ID)
		return true, nil
	}
	line.Quantity = quantity
	s.cartLines[line.ID] = line
	return true, nil
}

func (s *Memory) RemoveCartLine(_ context.Context, customerID, lineID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cartLines[lineID]
	if !ok || line.CustomerID != customerID {
		return false, nil
	}
	delete(s.cartLines, lineID)
	return true, nil
}

//
// --- Checkout ---
//

func (s *Memory) Checkout(_ context.Context, customerID int64, payment models.PaymentOption) ([]models.Order, error) {
	if _, ok := models.ParsePaymentOption(string(payment)); !ok {
		return nil, ErrInvalidPayment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.linesFor(customerID)
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	// Validate every line before mutating anything.
	for _, l := range lines {
		p := s.products[l.ProductID]
		if p.Quantity < l.Quantity {
			return nil, &StockShortageError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.Quantity,
			}
		}
	}

	now := time.Now()
	var orders []models.Order
	for _, l := range lines {
		p := s.products[l.ProductID]
		o := models.Order{
			ID:            s.nextOrderID,
			Reference:     uuid.NewString(),
			ProductID:     l.ProductID,
			CustomerID:    customerID,
			Quantity:      l.Quantity,
			TotalPrice:    p.Price.Mul(decimalFromInt(l.Quantity)),
			PaymentOption: payment,
			Status:        models.OrderStatusPending,
			CreatedAt:     now,
			ProductName:   p.Name,
		}
		s.nextOrderID++
		s.orders[o.ID] = o

		p.Quantity -= l.Quantity
		p.UpdatedAt = now
		s.products[p.ID] = p

		delete(s.cartLines, l.ID)
		orders = append(orders, o)
	}
	return orders, nil
}

//
// --- Orders ---
//

func (s *Memory) OrdersByCustomer(_ context.Context, customerID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			o.ProductName = s.products[o.ProductID].Name
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (s *Memory) OrdersForFarmer(_ context.Context, farmerID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for _, o := range s.orders {
		p, ok := s.products[o.ProductID]
		if ok && p.FarmerID == farmerID {
			o.ProductName = p.Name
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (s *Memory) DeleteOrder(_ context.Context, orderID, customerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return false, nil
	}
	delete(s.orders, orderID)
	return true, nil
}

func (s *Memory) ConfirmDelivery(_ context.Context, orderID, customerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.CustomerID != customerID || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusCompleted
	s.orders[orderID] = o
	return true, nil
}
