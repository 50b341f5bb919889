package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

// Local serves the approval queue from the in-memory store when no
// backend is configured. It applies no business rules: triggered
// campaigns are queued without discount options.
type Local struct {
	st  *store.MemoryStore
	log *slog.Logger
	now func() time.Time
}

func NewLocal(st *store.MemoryStore, log *slog.Logger) *Local {
	return &Local{st: st, log: log, now: time.Now}
}

// SeedPending queues the demo campaigns shown on the notifications page.
func SeedPending(st *store.MemoryStore) {
	for _, c := range seedCampaigns {
		st.AddPending(c)
	}
}

func (l *Local) TriggerCartAbandonment(ctx context.Context, req models.CartAbandonmentTriggerRequest) (models.CartAbandonmentTriggerResponse, error) {
	if req.UserID <= 0 {
		return models.CartAbandonmentTriggerResponse{}, fmt.Errorf("user_id is required: %w", ErrInvalidRequest)
	}
	id := "camp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	l.st.AddPending(models.PendingCampaign{
		CampaignID:            id,
		UserID:                req.UserID,
		Segment:               "standard_customers",
		Domain:                "ENUYGUN_FLIGHT",
		CartItems:             append([]string(nil), req.CartItems...),
		HoursSinceAbandonment: req.Hours,
		SMSPreview:            smsPreview(req.CartItems),
		DiscountOptions:       []models.DiscountOption{},
		CreatedAt:             l.now().UTC().Format(time.RFC3339),
	})
	l.log.Info("campaign queued", slog.String("campaign_id", id), slog.Int("user_id", req.UserID))
	return models.CartAbandonmentTriggerResponse{CampaignID: id, Status: models.StatusPendingApproval}, nil
}

func (l *Local) PendingApprovals(ctx context.Context) (models.PendingApprovalsResponse, error) {
	return models.PendingApprovalsResponse{Campaigns: l.st.Pending()}, nil
}

func (l *Local) Approve(ctx context.Context, campaignID, managerID string) error {
	return l.settle(campaignID, managerID, "approved", "")
}

func (l *Local) Reject(ctx context.Context, campaignID, managerID, reason string) error {
	return l.settle(campaignID, managerID, "rejected", reason)
}

func (l *Local) SelectOption(ctx context.Context, userID int, discount float64, managerID string) error {
	if _, ok := l.st.FindPendingByUser(userID); !ok {
		return fmt.Errorf("user %d: %w", userID, ErrCampaignNotFound)
	}
	l.log.Info("discount selected",
		slog.Int("user_id", userID),
		slog.Float64("discount", discount),
		slog.String("manager_id", managerID))
	return nil
}

func (l *Local) settle(id, managerID, action, reason string) error {
	if !l.st.RemovePending(id) {
		return fmt.Errorf("%s: %w", id, ErrCampaignNotFound)
	}
	l.log.Info("campaign "+action,
		slog.String("campaign_id", id),
		slog.String("manager_id", managerID),
		slog.String("reason", reason))
	return nil
}

func smsPreview(items []string) string {
	if len(items) == 0 {
		return "Hi! You left some great deals in your cart."
	}
	return "Hi! You left some great deals in your cart. Complete your booking: " + items[0]
}

var seedCampaigns = []models.PendingCampaign{
	{
		CampaignID:            "camp_001",
		UserID:                12345,
		Segment:               "premium_customers",
		Domain:                "ENUYGUN_HOTEL",
		CartItems:             []string{"Istanbul Hotel - 2 nights", "Breakfast included"},
		HoursSinceAbandonment: 2,
		SMSPreview:            "Hi! You left some great deals in your cart. Complete your Istanbul hotel booking with 15% off!",
		DiscountOptions: []models.DiscountOption{
			{Discount: 15, Confidence: 0.85, Strategy: "balanced", Reasoning: "Premium customer with high conversion probability"},
			{Discount: 20, Confidence: 0.72, Strategy: "conversion_maximization", Reasoning: "Aggressive approach for high-value booking"},
		},
		CreatedAt: "2024-01-15T10:30:00Z",
	},
	{
		CampaignID:            "camp_002",
		UserID:                67890,
		Segment:               "price_sensitive_customers",
		Domain:                "ENUYGUN_FLIGHT",
		CartItems:             []string{"Istanbul to Paris - Round trip", "Economy class"},
		HoursSinceAbandonment: 4,
		SMSPreview:            "Don't miss out! Your Paris flight is waiting. Get 25% off your booking now!",
		DiscountOptions: []models.DiscountOption{
			{Discount: 25, Confidence: 0.90, Strategy: "conversion_maximization", Reasoning: "Price-sensitive customer needs higher discount"},
			{Discount: 30, Confidence: 0.78, Strategy: "aggressive_conversion", Reasoning: "Maximum discount for guaranteed conversion"},
		},
		CreatedAt: "2024-01-15T08:15:00Z",
	},
}
