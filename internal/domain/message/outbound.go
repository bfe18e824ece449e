package message

// Endpoint names an outbound request to the host.
type Endpoint string

const (
	EndpointTimerExpired     Endpoint = "timerExpired"
	EndpointSendEMSSignal    Endpoint = "sendEMSSignal"
	EndpointStartRespawnHold Endpoint = "startRespawnHold"
	EndpointStopRespawnHold  Endpoint = "stopRespawnHold"
	EndpointRespawnPlayer    Endpoint = "respawnPlayer"
)

// UserAction is an action the player triggers on the overlay itself.
type UserAction string

const (
	UserSendSignal       UserAction = "sendSignal"
	UserStartRespawnHold UserAction = "startRespawnHold"
	UserStopRespawnHold  UserAction = "stopRespawnHold"
)
