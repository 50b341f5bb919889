package metrics

import "github.com/AngelCh415/voyager-portal/internal/models"

// DefaultSegments is the cohort breakdown shown on the segments page.
var DefaultSegments = []models.SegmentOverview{
	{
		SegmentID:  "AT_RISK_CUSTOMERS",
		Title:      "At-Risk Customers",
		UserCount:  97686,
		Percentage: 0.264,
		Profile:    "Low value, high churn risk, price sensitive, low activity",
		Meaning:    "Low spenders likely to leave, highly price-conscious",
		Behavior:   "Infrequent bookings, cart abandonment, strong discount response",
		Strategy:   "Urgent retention: offer 10-13% discounts",
	},
	{
		SegmentID:  "HIGH_VALUE_CUSTOMERS",
		Title:      "High-Value Customers",
		UserCount:  85139,
		Percentage: 0.23,
		Profile:    "High value, low churn risk, price tolerant, highly active",
		Meaning:    "Most valuable and loyal customers",
		Behavior:   "Regular bookings, complete purchases, low discount need",
		Strategy:   "Maintain relationship: premium rewards, 5-8% discounts",
	},
	{
		SegmentID:  "STANDARD_CUSTOMERS",
		Title:      "Standard Customers",
		UserCount:  76027,
		Percentage: 0.206,
		Profile:    "Medium value/risk, price tolerant, moderately active",
		Meaning:    "Average stable customers",
		Behavior:   "Occasional bookings, moderate spending",
		Strategy:   "Standard promos: 5-10% discounts",
	},
	{
		SegmentID:  "PRICE_SENSITIVE_CUSTOMERS",
		Title:      "Price-Sensitive Customers",
		UserCount:  67600,
		Percentage: 0.183,
		Profile:    "Low value, medium risk, highly price sensitive",
		Meaning:    "Active but price-focused",
		Behavior:   "Heavy price comparison, discount-driven, abandon if expensive",
		Strategy:   "Aggressive price promos: 12-18% discounts",
	},
	{
		SegmentID:  "PREMIUM_CUSTOMERS",
		Title:      "Premium Customers",
		UserCount:  43097,
		Percentage: 0.117,
		Profile:    "High value, medium risk, price tolerant, low activity",
		Meaning:    "High spenders, infrequent bookings",
		Behavior:   "Infrequent but high-value bookings",
		Strategy:   "Premium rewards: 5-8% discounts, exclusive offers",
	},
}
