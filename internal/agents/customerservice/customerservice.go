// Package customerservice implements the agent that handles customer
// profiles, support tickets, recommendations and loyalty points.
package customerservice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/payload"
)

// Customer 是一条客户档案记录。
type Customer struct {
	CustomerID     string                 `json:"customer_id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	LoyaltyPoints  float64                `json:"loyalty_points"`
	TotalPurchases float64                `json:"total_purchases"`
	LifetimeValue  float64                `json:"lifetime_value"`
	Preferences    map[string]interface{} `json:"preferences"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Interaction 是一条客户互动记录（工单）。
type Interaction struct {
	InteractionID   string    `json:"interaction_id"`
	CustomerID      string    `json:"customer_id"`
	InteractionType string    `json:"interaction_type"` // chat, email, phone, in_person
	Subject         string    `json:"subject"`
	Message         string    `json:"message"`
	Sentiment       string    `json:"sentiment"` // positive, neutral, negative
	Timestamp       time.Time `json:"timestamp"`
}

// Agent handles customer service requests against its customer book.
type Agent struct {
	mu           sync.RWMutex
	customers    map[string]*Customer
	interactions []Interaction
}

// New creates the customer service agent with the demo customer book.
func New() *Agent {
	now := time.Now().UTC()
	return &Agent{
		customers: map[string]*Customer{
			"CUST001": {
				CustomerID:     "CUST001",
				Name:           "John Smith",
				Email:          "john@example.com",
				Phone:          "555-0001",
				LoyaltyPoints:  1250,
				TotalPurchases: 5000,
				LifetimeValue:  5000,
				Preferences:    map[string]interface{}{"newsletter": true, "sms_alerts": false},
				CreatedAt:      now,
			},
			"CUST002": {
				CustomerID:     "CUST002",
				Name:           "Jane Doe",
				Email:          "jane@example.com",
				Phone:          "555-0002",
				LoyaltyPoints:  3450,
				TotalPurchases: 12500,
				LifetimeValue:  12500,
				Preferences:    map[string]interface{}{"newsletter": true, "sms_alerts": true},
				CreatedAt:      now,
			},
		},
	}
}

// Metadata describes the agent for the registry.
func (a *Agent) Metadata() agent.Metadata {
	return agent.Metadata{
		Name:              agent.NameCustomerService,
		Capability:        "Handles customer profiles, support tickets, recommendations and loyalty points",
		InputDescription:  "action (query_customer|create_ticket|get_recommendations|loyalty) plus customer fields",
		OutputDescription: "status envelope with the requested customer data",
	}
}

// Handle dispatches on the requested action.
func (a *Agent) Handle(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	switch action := payload.StringOr(req, "action", "query_customer"); action {
	case "query_customer":
		return a.queryCustomer(req), nil
	case "create_ticket":
		return a.createTicket(req), nil
	case "get_recommendations":
		return a.recommendations(req), nil
	case "loyalty":
		return a.loyalty(req), nil
	default:
		return payload.Error(fmt.Sprintf("Unknown action: %s", action)), nil
	}
}

func (a *Agent) queryCustomer(req map[string]interface{}) map[string]interface{} {
	customerID := payload.String(req, "customer_id")
	email := payload.String(req, "email")

	a.mu.RLock()
	defer a.mu.RUnlock()

	var customer *Customer
	if customerID != "" {
		customer = a.customers[customerID]
	} else if email != "" {
		for _, c := range a.customers {
			if c.Email == email {
				customer = c
				break
			}
		}
	}
	if customer == nil {
		return payload.Error("Customer not found")
	}

	return payload.Success(map[string]interface{}{
		"customer_id":     customer.CustomerID,
		"name":            customer.Name,
		"email":           customer.Email,
		"phone":           customer.Phone,
		"loyalty_points":  customer.LoyaltyPoints,
		"total_purchases": customer.TotalPurchases,
		"lifetime_value":  customer.LifetimeValue,
		"member_since":    customer.CreatedAt,
		"preferences":     customer.Preferences,
	})
}

func (a *Agent) createTicket(req map[string]interface{}) map[string]interface{} {
	customerID := payload.String(req, "customer_id")
	subject := payload.String(req, "subject")
	message := payload.String(req, "message")

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.customers[customerID]; !ok {
		return payload.Error(fmt.Sprintf("Customer %s not found", customerID))
	}
	if subject == "" || message == "" {
		return payload.Error("subject and message required")
	}

	sentiment := analyzeSentiment(message)
	interaction := Interaction{
		InteractionID:   fmt.Sprintf("TICKET_%06d", len(a.interactions)+1),
		CustomerID:      customerID,
		InteractionType: payload.StringOr(req, "interaction_type", "chat"),
		Subject:         subject,
		Message:         message,
		Sentiment:       sentiment,
		Timestamp:       time.Now().UTC(),
	}
	a.interactions = append(a.interactions, interaction)

	return payload.Success(map[string]interface{}{
		"ticket_id":           interaction.InteractionID,
		"customer_id":         customerID,
		"created_at":          interaction.Timestamp,
		"sentiment":           sentiment,
		"auto_response":       autoResponse(sentiment, subject),
		"requires_escalation": sentiment == "negative",
	})
}

func (a *Agent) recommendations(req map[string]interface{}) map[string]interface{} {
	customerID := payload.String(req, "customer_id")

	a.mu.RLock()
	defer a.mu.RUnlock()

	customer, ok := a.customers[customerID]
	if !ok {
		return payload.Error(fmt.Sprintf("Customer %s not found", customerID))
	}

	var recommendations []map[string]interface{}
	if customer.LifetimeValue > 10000 {
		recommendations = []map[string]interface{}{
			{"sku": "SKU001", "product": "Widget Pro", "reason": "Premium tier customer preference", "discount": 15},
		}
	} else {
		recommendations = []map[string]interface{}{
			{"sku": "SKU002", "product": "Gadget Lite", "reason": "Popular entry-level product", "discount": 10},
		}
	}

	return payload.Success(map[string]interface{}{
		"customer_id":           customerID,
		"customer_tier":         tier(customer.LifetimeValue),
		"recommendations":       recommendations,
		"personalization_score": 0.85,
	})
}

func (a *Agent) loyalty(req map[string]interface{}) map[string]interface{} {
	customerID := payload.String(req, "customer_id")
	operation := payload.StringOr(req, "operation", "check")
	points := payload.FloatOr(req, "points", 0)

	a.mu.Lock()
	defer a.mu.Unlock()

	customer, ok := a.customers[customerID]
	if !ok {
		return payload.Error(fmt.Sprintf("Customer %s not found", customerID))
	}

	switch operation {
	case "check":
		return payload.Success(map[string]interface{}{
			"customer_id":         customerID,
			"loyalty_points":      customer.LoyaltyPoints,
			"tier":                tier(customer.LifetimeValue),
			"points_to_next_tier": pointsToNextTier(customer.LifetimeValue),
		})
	case "add":
		customer.LoyaltyPoints += points
		return payload.Success(map[string]interface{}{
			"customer_id":          customerID,
			"points_added":         points,
			"total_loyalty_points": customer.LoyaltyPoints,
			"updated_at":           time.Now().UTC(),
		})
	case "redeem":
		if customer.LoyaltyPoints < points {
			return payload.Error(fmt.Sprintf("Insufficient points. Available: %.0f", customer.LoyaltyPoints))
		}
		customer.LoyaltyPoints -= points
		return payload.Success(map[string]interface{}{
			"customer_id":      customerID,
			"points_redeemed":  points,
			"remaining_points": customer.LoyaltyPoints,
			"reward_value":     points * 0.01, // $0.01 per point
		})
	default:
		return payload.Error(fmt.Sprintf("Unknown operation: %s", operation))
	}
}

var (
	negativeWords = []string{"bad", "terrible", "awful", "horrible", "problem", "issue", "broken"}
	positiveWords = []string{"great", "excellent", "amazing", "love", "perfect"}
)

// analyzeSentiment is a keyword count, nothing more. It only drives the tone
// of the canned auto-response and the escalation hint.
func analyzeSentiment(message string) string {
	lowered := strings.ToLower(message)
	neg, pos := 0, 0
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			neg++
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			pos++
		}
	}
	switch {
	case neg > pos:
		return "negative"
	case pos > neg:
		return "positive"
	default:
		return "neutral"
	}
}

func autoResponse(sentiment, subject string) string {
	switch sentiment {
	case "negative":
		return fmt.Sprintf("We sincerely apologize for the issue with your %s. Our support team will prioritize your ticket for immediate resolution.", subject)
	case "positive":
		return fmt.Sprintf("Thank you for your positive feedback on %s! We're thrilled you're satisfied with your experience.", subject)
	default:
		return fmt.Sprintf("Thank you for reaching out about %s. We're here to help and will respond shortly.", subject)
	}
}

func tier(lifetimeValue float64) string {
	switch {
	case lifetimeValue > 10000:
		return "Platinum"
	case lifetimeValue > 5000:
		return "Gold"
	default:
		return "Silver"
	}
}

func pointsToNextTier(lifetimeValue float64) float64 {
	switch {
	case lifetimeValue < 5000:
		return 5000 - lifetimeValue
	case lifetimeValue < 10000:
		return 10000 - lifetimeValue
	default:
		return 0
	}
}
