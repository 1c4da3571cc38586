// Package events decouples the service layer from task creation. A service
// emits a TaskRequestEvent describing work to be done; a registered handler
// turns it into a concrete background task. Neither side imports the other.
package events
