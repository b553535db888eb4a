package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/domain"
)

func rupees(d decimal.Decimal) string { return "₹" + d.StringFixed(2) }

const (
	msgClosed = "❌ The restaurant is currently closed.\n⏳ Please come back during our working hours.\nThank you for your understanding! 😊"

	msgAskName       = "May I know your name?"
	msgEmptyMenu     = "Sorry, our menu is currently empty. Please check again later."
	msgEmptyCart     = "You haven't selected any items yet. Please choose at least one item from the menu."
	msgBadPayment    = "❌ Invalid payment method. Please choose Cash, UPI, or Card."
	msgAskEmail      = "Please provide your email (optional). Type 'skip' to continue without email."
	msgBadQuantity   = "❌ Quantity must be a whole number from 1 to 99 per item."
	msgLinkFailed    = "⚠️ Sorry, failed to generate payment link. Please try again by typing *Order*."
	msgOrderFailed   = "⚠️ Sorry, we couldn't place your order right now. Please reply with your payment method again."
	msgSystemError   = "⚠️ Sorry, a system error occurred while processing your message. Please try again or type *Order* to restart. 🤕"
	msgSessionCancel = "❌ Your current order has been cancelled.\nYou can start again anytime by typing *Order*."
	msgNothingCancel = "No active order found to cancel.\nYou can start a new one by typing *Order*."
	msgCancelAck     = "✅ Done. Type *Order* whenever you want to order again."

	msgTrackPrompt = "🔍 *Track Your Order*\n\nPlease provide your Order ID to track your order.\n\n📝 Example:\n• Type: *status 123*\n• Or: *track #123*\n\nYou can find your Order ID in the confirmation message we sent when you placed the order."
)

func greeting(restaurant string) string {
	return fmt.Sprintf("Hello! Welcome to *%s*! 😊\n\n%s", restaurant, msgAskName)
}

func restartNotice(orderID int64) string {
	return fmt.Sprintf("⚠️ We see your last online payment for order *#%d* failed.\nWe are starting a new order now. You can choose *Cash* or try *UPI/Card* again.", orderID)
}

func menuText(customer string, items []domain.MenuItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks %s! Here's our menu:\n\n", customer)
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s - %s", it.Name, rupees(it.Price))
		if it.Description != "" {
			fmt.Fprintf(&b, " (%s)", it.Description)
		}
	}
	b.WriteString("\n\n👉 Please type the name of the item you want to order. You can also add a quantity like *2 burger*, one item per message.\nType 'done' when finished.")
	return b.String()
}

func notOnMenu(name string) string {
	return fmt.Sprintf("❌ Sorry, we don't have \"%s\" on the menu today. Please choose something else or type 'done' to finish.", name)
}

func itemAdded(it domain.MenuItem, qty int) string {
	line := domain.OrderItem{Name: it.Name, Price: it.Price, Quantity: qty}
	return fmt.Sprintf("✅ Added %s x%d (%s) to your order.\nYou can add more items or type 'done' to finish ordering.",
		it.Name, qty, rupees(line.LineTotal()))
}

func droppedItems(names []string) string {
	return "⚠️ Removed from your cart because they are no longer available: " + strings.Join(names, ", ")
}

func writeLines(b *strings.Builder, lines []domain.OrderItem) {
	for _, l := range lines {
		fmt.Fprintf(b, "• %s x%d - %s\n", l.Name, l.Quantity, rupees(l.LineTotal()))
	}
}

func orderSummary(lines []domain.OrderItem, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("🧾 Here's your order summary:\n")
	writeLines(&b, lines)
	fmt.Fprintf(&b, "\n💰 Total: %s\n\nHow would you like to pay? (Cash / UPI / Card)", rupees(total))
	return b.String()
}

func cashConfirmation(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *Order Confirmed!*\n\n📝 Order ID: *#%d*\n👤 Customer: %s\n\n🛒 *Your Order:*\n", o.ID, o.CustomerName)
	writeLines(&b, o.Items)
	fmt.Fprintf(&b, "\n💰 Total: %s\n💳 Payment: Cash\n\n⏱️ Your meal will be ready soon! 🍽️\n\n📍 Track your order anytime by typing:\n*status %d*", rupees(o.TotalPrice), o.ID)
	return b.String()
}

func paymentLinkMessage(o domain.Order, url string) string {
	return fmt.Sprintf("💳 *Payment Link Generated*\n\n📝 Order ID: *#%d*\n💰 Amount: %s\n\n🔗 Payment Link:\n%s\n\n⚡ Please complete the payment to confirm your order.\n\n📍 After payment, track your order by typing:\n*status %d*",
		o.ID, rupees(o.TotalPrice), url, o.ID)
}

func orderNotFound(id string) string {
	return fmt.Sprintf("❌ Order #%s not found for your number.\n\nPlease check your Order ID and try again.", id)
}

var statusLines = map[domain.OrderStatus]string{
	domain.StatusPending:   "⏳ Your order is waiting to be confirmed by the restaurant.",
	domain.StatusAccepted:  "✅ Your order has been accepted! We're preparing it now.",
	domain.StatusPreparing: "👨‍🍳 Your delicious meal is being prepared!",
	domain.StatusCompleted: "✅ Your order is ready!",
	domain.StatusDelivered: "🎉 Your order has been delivered! Enjoy your meal!",
	domain.StatusCancelled: "❌ Your order was cancelled.",
}

func orderStatus(o domain.Order) string {
	line, ok := statusLines[o.OrderStatus]
	if !ok {
		line = "📋 Order is being processed."
	}
	return fmt.Sprintf("📦 *Order Status*\n\nOrder ID: *#%d*\nCustomer: %s\nTotal: %s\nPayment: %s\nStatus: *%s*\n\n%s",
		o.ID, o.CustomerName, rupees(o.TotalPrice), o.PaymentStatus, o.OrderStatus, line)
}

func cancelRefused(o domain.Order, contact string) string {
	return fmt.Sprintf("⚠️ Your order #%d is already being processed by the restaurant.\n\nStatus: *%s*\n\nPlease contact us directly to cancel:\n📞 Contact no.: %s\n\nThank you for your understanding! 🙏",
		o.ID, o.OrderStatus, contact)
}

func alreadyCancelled(o domain.Order) string {
	return fmt.Sprintf("ℹ️ Your order #%d is already cancelled.\n\nType *Order* to place a new order! 😊", o.ID)
}

func cancelFailed(contact string) string {
	return "❌ Failed to cancel order. Please contact the restaurant.\n📞 Contact no.: " + contact
}
