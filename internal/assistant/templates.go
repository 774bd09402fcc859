package assistant

// TemplateKind names a canned reply.
type TemplateKind string

const (
	TemplateReturn   TemplateKind = "return"
	TemplateRefund   TemplateKind = "refund"
	TemplateShipping TemplateKind = "shipping"
)

var templates = map[TemplateKind]string{
	TemplateReturn: `To initiate a return, please follow these steps:
1. Log into your account
2. Go to Order History
3. Select the order you wish to return
4. Click "Request Return"
5. Follow the instructions to print your return label

Our return policy allows returns within 30 days of delivery. Items must be unused and in original packaging.`,

	TemplateRefund: `Refunds are processed within 5-7 business days after we receive your returned item.
The refund will be issued to your original payment method.

If you have any questions about the status of your refund, please provide your order number and I'll check for you.`,

	TemplateShipping: `We offer several shipping options:
- Standard Shipping (5-7 business days): FREE on orders over $50
- Express Shipping (2-3 business days): $9.99
- Overnight Shipping (1 business day): $19.99

All orders are processed within 24 hours. You'll receive a tracking number via email once your order ships.`,
}

// Template returns the canned reply for kind.
func Template(kind TemplateKind) (string, bool) {
	t, ok := templates[kind]
	return t, ok
}
