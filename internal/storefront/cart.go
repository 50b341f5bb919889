package storefront

import (
	"errors"
	"strings"
	"time"

	"github.com/AngelCh415/voyager-portal/internal/models"
)

// AbandonmentHours is what the storefront reports when a cart is left behind.
const AbandonmentHours = 1

var (
	ErrUnknownItem = errors.New("unknown item")
	ErrEmptyCart   = errors.New("cart is empty")
)

var catalog = []models.TravelItem{
	{ID: "1", Name: "İstanbul - Antalya Uçak Bileti", Price: 450, OriginalPrice: 600, Discount: 25, Category: "flight", Location: "Antalya", Duration: "1 saat 30 dk", Rating: 4.5, Description: "THY ile konforlu uçuş deneyimi"},
	{ID: "2", Name: "Grand Hotel Antalya", Price: 1200, OriginalPrice: 1500, Discount: 20, Category: "hotel", Location: "Antalya Merkez", Duration: "3 gece", Rating: 4.8, Description: "Deniz manzaralı lüks otel"},
	{ID: "3", Name: "Araç Kiralama - Ekonomik", Price: 300, OriginalPrice: 400, Discount: 25, Category: "car", Location: "Antalya Havalimanı", Duration: "2 gün", Rating: 4.2, Description: "Günlük 150 TL'den başlayan fiyatlarla"},
	{ID: "4", Name: "İstanbul - İzmir Otobüs", Price: 180, OriginalPrice: 220, Discount: 18, Category: "bus", Location: "İzmir", Duration: "8 saat", Rating: 4.0, Description: "Konforlu seyahat deneyimi"},
}

func Catalog() []models.TravelItem {
	out := make([]models.TravelItem, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (models.TravelItem, bool) {
	for _, it := range catalog {
		if it.ID == id {
			return it, true
		}
	}
	return models.TravelItem{}, false
}

// Search matches q against item name and location, ignoring case.
func Search(q string) []models.TravelItem {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return Catalog()
	}
	var out []models.TravelItem
	for _, it := range catalog {
		if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Location), q) {
			out = append(out, it)
		}
	}
	return out
}

func NewCart(userID int, now time.Time) models.Cart {
	return models.Cart{Items: []models.CartItem{}, UserID: userID, LastUpdated: now}
}

// Add puts item in the cart or bumps its quantity. The cart passed in is
// not modified.
func Add(c models.Cart, item models.TravelItem, now time.Time) models.Cart {
	items := make([]models.CartItem, 0, len(c.Items)+1)
	found := false
	for _, ci := range c.Items {
		if ci.ID == item.ID {
			ci.Quantity++
			found = true
		}
		items = append(items, ci)
	}
	if !found {
		items = append(items, models.CartItem{TravelItem: item, Quantity: 1})
	}
	return withItems(c, items, now)
}

func Remove(c models.Cart, id string, now time.Time) models.Cart {
	items := make([]models.CartItem, 0, len(c.Items))
	for _, ci := range c.Items {
		if ci.ID != id {
			items = append(items, ci)
		}
	}
	return withItems(c, items, now)
}

// UpdateQuantity sets the quantity of id; zero or less removes it.
func UpdateQuantity(c models.Cart, id string, q int, now time.Time) models.Cart {
	if q <= 0 {
		return Remove(c, id, now)
	}
	items := make([]models.CartItem, 0, len(c.Items))
	for _, ci := range c.Items {
		if ci.ID == id {
			ci.Quantity = q
		}
		items = append(items, ci)
	}
	return withItems(c, items, now)
}

func Total(items []models.CartItem) float64 {
	var sum float64
	for _, ci := range items {
		sum += ci.Price * float64(ci.Quantity)
	}
	return sum
}

func ItemNames(c models.Cart) []string {
	out := make([]string, 0, len(c.Items))
	for _, ci := range c.Items {
		out = append(out, ci.Name)
	}
	return out
}

// AbandonmentRequest builds the trigger payload for a cart.
func AbandonmentRequest(c models.Cart) (models.CartAbandonmentTriggerRequest, error) {
	if len(c.Items) == 0 {
		return models.CartAbandonmentTriggerRequest{}, ErrEmptyCart
	}
	return models.CartAbandonmentTriggerRequest{UserID: c.UserID, CartItems: ItemNames(c), Hours: AbandonmentHours}, nil
}

func withItems(c models.Cart, items []models.CartItem, now time.Time) models.Cart {
	c.Items = items
	c.Total = Total(items)
	c.LastUpdated = now
	return c
}

// AbandonmentNotice is what the shopper sees once a reminder campaign is queued.
func AbandonmentNotice(campaignID string, now time.Time) models.Notification {
	return models.Notification{
		ID:        "notice_" + campaignID,
		Type:      "cart_abandonment",
		Title:     "Sepetinizde ürünler var",
		Message:   "Rezervasyonunuzu tamamlayın, size özel bir teklif hazırlıyoruz.",
		CreatedAt: now,
	}
}
