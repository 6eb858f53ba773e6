package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the Admin role
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational - Public
	"healthz": SecurityPublic,
	"metrics": SecurityPublic,

	// Gateway notifications are authenticated by signature, not token
	"paymentCallback": SecurityPublic,
	"mockCheckout":    SecurityPublic,

	// Equipment
	"getEquipment":          SecurityPublic,
	"equipmentAvailability": SecurityPublic,
	"createEquipment":       SecurityAccess,
	"updateEquipment":       SecurityAccess,

	// Orders - Access Protected
	"createOrder":       SecurityAccess,
	"listOrders":        SecurityAccess,
	"getOrder":          SecurityAccess,
	"updateOrderStatus": SecurityAccess,
	"cancelOrder":       SecurityAccess,

	// Payments - Access Protected
	"createPaymentIntent": SecurityAccess,
	"getPaymentStatus":    SecurityAccess,
	"completePayment":     SecurityAccess,

	// Admin
	"expireStaleOrders": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
