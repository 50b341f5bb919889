package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/storefront"
)

func (h *handlers) storeItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, storefront.Search(r.URL.Query().Get("q")))
}

func (h *handlers) currentCart() models.Cart {
	if c, ok := h.Store.Cart(h.Config.StoreUserID); ok {
		return c
	}
	return storefront.NewCart(h.Config.StoreUserID, h.Now())
}

func (h *handlers) cart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.currentCart())
}

func (h *handlers) addToCart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	item, ok := storefront.Lookup(body.ItemID)
	if !ok {
		writeError(w, http.StatusNotFound, storefront.ErrUnknownItem.Error())
		return
	}
	writeJSON(w, h.Store.UpdateCart(h.Config.StoreUserID, func(c models.Cart) models.Cart {
		return storefront.Add(c, item, h.Now())
	}))
}

func (h *handlers) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	id, q := chi.URLParam(r, "id"), *body.Quantity
	writeJSON(w, h.Store.UpdateCart(h.Config.StoreUserID, func(c models.Cart) models.Cart {
		return storefront.UpdateQuantity(c, id, q, h.Now())
	}))
}

func (h *handlers) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, h.Store.UpdateCart(h.Config.StoreUserID, func(c models.Cart) models.Cart {
		return storefront.Remove(c, id, h.Now())
	}))
}

// abandonCart reports the current cart as abandoned. The shopper gets a
// notice once the campaign is queued.
func (h *handlers) abandonCart(w http.ResponseWriter, r *http.Request) {
	c := h.currentCart()
	req, err := storefront.AbandonmentRequest(c)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.guarded(w, r, "abandon", func() (any, string, error) {
		resp, err := h.trigger(r, req)
		if err != nil {
			return nil, "", err
		}
		n := storefront.AbandonmentNotice(resp.CampaignID, h.Now())
		h.Store.AddNotification(c.UserID, n)
		return map[string]any{
			"campaign_id":  resp.CampaignID,
			"status":       resp.Status,
			"notification": n,
		}, fmt.Sprintf("Campaign %s created and queued for approval", resp.CampaignID), nil
	})
}

func (h *handlers) notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Store.Notifications(h.Config.StoreUserID))
}

func (h *handlers) markRead(w http.ResponseWriter, r *http.Request) {
	if !h.Store.MarkRead(h.Config.StoreUserID, chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
