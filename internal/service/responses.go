package service

import "concierge/internal/model"

// cannedResponses holds the candidate replies per category
var cannedResponses = map[model.ResponseCategory][]string{
	model.CategoryGreeting: {
		"Hello! I'm your AI property concierge. How can I help you find your perfect luxury home in Sydney today?",
		"Welcome to Synapteca! I'm here to assist you with all your luxury real estate needs. What can I help you with?",
		"Good day! I'm your personal AI assistant for luxury properties. What would you like to know about Sydney's premium real estate market?",
	},
	model.CategoryWaterfront: {
		"I'd be delighted to help you find waterfront properties! We have stunning harbourside and beachfront homes in Point Piper, Rose Bay, and Vaucluse. These properties feature private jetties, beach access, and panoramic water views. Would you like me to show you specific listings?",
	},
	model.CategoryPrice: {
		"Our luxury properties range from $10M to $35M+. The most prestigious waterfront estates in Point Piper and Rose Bay start around $25M, while beautiful homes in Mosman and Double Bay begin around $12M. What's your preferred price range?",
	},
	model.CategoryNeighborhoods: {
		"Sydney's most prestigious neighborhoods include Point Piper (waterfront mansions), Double Bay (shopping & dining), Mosman (family-friendly with beaches), Vaucluse (clifftop estates), and Rose Bay (luxury waterfront). Each offers unique advantages. Which lifestyle appeals to you most?",
	},
	model.CategoryFeatures: {
		"Our luxury homes feature infinity pools, wine cellars, home theatres, private jetties, tennis courts, and smart home technology. Many include guest wings, staff quarters, and world-class security systems. What amenities are most important to you?",
	},
	model.CategoryInvestment: {
		"Sydney's luxury market has shown strong performance, particularly in waterfront areas. Properties in Point Piper and Rose Bay have appreciated 8-12% annually. I can connect you with our investment advisory team for detailed market analysis.",
	},
	model.CategoryScheduling: {
		"I'd be happy to arrange a private tour! Our luxury property specialists are available 7 days a week. Would you prefer a morning or afternoon appointment? I can also arrange helicopter tours for waterfront estates.",
		"Absolutely! I can schedule a personalized showing with one of our senior advisors. Private tours typically last 90 minutes and include property history, neighborhood insights, and market analysis. When would work best for you?",
	},
	model.CategoryMortgage: {
		"Our mortgage calculator can help estimate payments for luxury properties. For a $20M property with 20% down, monthly payments would be approximately $85,000 including principal, interest, taxes, and insurance. Would you like me to calculate specific scenarios?",
		"I can connect you with our premium mortgage specialists who work exclusively with high-net-worth clients. They offer private banking relationships and competitive rates for luxury properties. Shall I arrange a consultation?",
	},
	model.CategoryPointPiper: {
		"Point Piper is Sydney's most prestigious waterfront address! We have exceptional mansions there starting from $25M, featuring private jetties and panoramic harbour views. Would you like to see our current Point Piper listings?",
	},
	model.CategoryDoubleBay: {
		"Double Bay offers the perfect blend of luxury living and urban convenience! Known for high-end shopping and waterfront dining, our properties there range from $12M to $25M. The area is famous for its designer boutiques and marina access.",
	},
	model.CategoryMosman: {
		"Mosman is perfect for luxury family living! This harbour suburb offers beautiful beaches, excellent schools, and properties ranging from $8M to $18M. It's particularly popular with families seeking premium amenities and outdoor lifestyle.",
	},
	model.CategoryFallback: {
		"That's a great question! Let me connect you with one of our luxury property specialists who can provide detailed information. Would you like me to arrange a call?",
		"I'd be happy to help with that. For specific inquiries about luxury properties, our expert advisors can provide comprehensive assistance. Shall I schedule a consultation?",
		"Thank you for your interest! Our team of luxury real estate experts can provide detailed information about Sydney's premium market. Would you like to speak with a specialist?",
	},
}

// ResponsesFor returns the candidate replies for a category
func ResponsesFor(category model.ResponseCategory) []string {
	return append([]string(nil), cannedResponses[category]...)
}
