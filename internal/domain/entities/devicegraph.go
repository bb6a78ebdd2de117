package entities

import "fmt"

// FraudRingReason builds the ring reason code carrying the linked-user count.
func FraudRingReason(linkedUsers int) string {
	return fmt.Sprintf("FRAUD_RING_DETECTED_USERS_%d", linkedUsers)
}
