package models

import "time"

// SegmentRow is one row of the campaign stats payload, keyed by segment.
type SegmentRow struct {
	Segment    *string  `json:"segment"`
	Users      float64  `json:"users"`
	Offers     float64  `json:"offers"`
	Accepts    float64  `json:"accepts"`
	AcceptRate *float64 `json:"acceptRate"`
}

type CampaignRow struct {
	Campaign   *string  `json:"campaign"`
	Shown      float64  `json:"shown"`
	Accepted   float64  `json:"accepted"`
	AcceptRate *float64 `json:"acceptRate"`
}

// Payload is the static campaign stats document bundled with the portal.
type Payload struct {
	Segments           []SegmentRow             `json:"segments"`
	BreakdownBySegment map[string][]CampaignRow `json:"breakdownBySegment"`
	Campaigns          []CampaignRow            `json:"campaigns"`
}

type ChartSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type ArcSlice struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Color         string  `json:"color"`
	StartAngleDeg float64 `json:"start_angle_deg"`
	EndAngleDeg   float64 `json:"end_angle_deg"`
}

// SegmentOverview describes a customer cohort on the segments page.
type SegmentOverview struct {
	SegmentID  string  `json:"segment_id"`
	Title      string  `json:"title"`
	UserCount  int     `json:"user_count"`
	Percentage float64 `json:"percentage"` // 0..1
	Profile    string  `json:"profile"`
	Meaning    string  `json:"meaning"`
	Behavior   string  `json:"behavior"`
	Strategy   string  `json:"strategy"`
}

type HourlyDemand struct {
	Hour  int    `json:"hour"`
	Users int    `json:"users"`
	Label string `json:"label"`
}

type SchedulingSuggestion struct {
	HourUTC    int     `json:"hour_utc"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// Backend wire types.

type CartAbandonmentTriggerRequest struct {
	UserID    int      `json:"user_id"`
	CartItems []string `json:"cart_items"`
	Hours     int      `json:"hours"`
}

type CartAbandonmentTriggerResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"` // pending_approval
}

const StatusPendingApproval = "pending_approval"

type DiscountOption struct {
	Discount   float64 `json:"discount"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy"`
	Reasoning  string  `json:"reasoning"`
}

type PendingCampaign struct {
	CampaignID            string           `json:"campaign_id"`
	UserID                int              `json:"user_id"`
	Segment               string           `json:"segment"`
	Domain                string           `json:"domain"`
	CartItems             []string         `json:"cart_items"`
	HoursSinceAbandonment int              `json:"hours_since_abandonment"`
	SMSPreview            string           `json:"sms_preview"`
	DiscountOptions       []DiscountOption `json:"discount_options"`
	CreatedAt             string           `json:"created_at"`
}

type PendingApprovalsResponse struct {
	Campaigns []PendingCampaign `json:"campaigns"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime"`
}

type StatsResponse struct {
	UsersCached int    `json:"users_cached"`
	RulesCount  int    `json:"rules_count"`
	AgentsCount int    `json:"agents_count"`
	LastUpdated string `json:"last_updated"`
}

// Storefront types.

type TravelItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	Discount      int     `json:"discount,omitempty"`
	Category      string  `json:"category"` // flight, hotel, car, bus
	Location      string  `json:"location"`
	Duration      string  `json:"duration,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	Description   string  `json:"description"`
}

type CartItem struct {
	TravelItem
	Quantity int `json:"quantity"`
}

type Cart struct {
	Items       []CartItem `json:"items"`
	Total       float64    `json:"total"`
	UserID      int        `json:"user_id"`
	LastUpdated time.Time  `json:"last_updated"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // cart_abandonment, discount_offer, reminder
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Discount  int       `json:"discount,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
